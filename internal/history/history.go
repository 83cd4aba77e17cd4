/*
Package history records which report dates have already been emailed.
*/
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shanehull/asxreport/internal/logger"
)

const (
	historyFileName = "asx_report_history.json"
	historyDirName  = "asxreport"
	dateLayout      = "2006-01-02"

	// entries older than this are dropped on save
	retention = 30 * 24 * time.Hour
)

type History struct {
	LastReportDate string
	Delivered      map[string]time.Time
}

type Manager struct {
	history         History
	mutex           sync.Mutex
	historyFilePath string
	reportLocation  *time.Location
	now             func() time.Time
	logger          *zap.Logger
}

// NewManager opens the ledger in the OS temp directory.
func NewManager(tzName string, log *zap.Logger) (*Manager, error) {
	return newManagerIn(filepath.Join(os.TempDir(), historyDirName), tzName, log)
}

func newManagerIn(historyDir, tzName string, log *zap.Logger) (*Manager, error) {
	if err := os.MkdirAll(historyDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory %s: %w", historyDir, err)
	}

	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone name '%s': %w", tzName, err)
	}

	m := &Manager{
		historyFilePath: filepath.Join(historyDir, historyFileName),
		reportLocation:  loc,
		now:             time.Now,
		logger:          logger.OrNop(log),
	}

	m.loadHistory()
	return m, nil
}

func (m *Manager) loadHistory() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.history = History{Delivered: make(map[string]time.Time)}

	data, err := os.ReadFile(m.historyFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			m.logger.Info("history file not found, starting fresh", zap.String("path", m.historyFilePath))
			return
		}
		m.logger.Warn("failed to read history file, starting fresh", zap.String("path", m.historyFilePath), zap.Error(err))
		return
	}

	var loaded History
	if err := json.Unmarshal(data, &loaded); err != nil {
		m.logger.Warn("failed to unmarshal history, starting fresh", zap.Error(err))
		return
	}
	if loaded.Delivered != nil {
		m.history = loaded
	}
	m.logger.Debug("history loaded",
		zap.String("last_report_date", m.history.LastReportDate),
		zap.Int("delivered", len(m.history.Delivered)),
	)
}

func (m *Manager) saveHistory() error {
	cutoff := m.now().Add(-retention)
	for date, at := range m.history.Delivered {
		if at.Before(cutoff) {
			delete(m.history.Delivered, date)
		}
	}

	data, err := json.MarshalIndent(m.history, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := os.WriteFile(m.historyFilePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write history file %s: %w", m.historyFilePath, err)
	}
	m.logger.Debug("history saved", zap.String("path", m.historyFilePath))
	return nil
}

func (m *Manager) key(date time.Time) string {
	return date.In(m.reportLocation).Format(dateLayout)
}

// Delivered reports whether the report for date has been emailed.
func (m *Manager) Delivered(date time.Time) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	_, ok := m.history.Delivered[m.key(date)]
	return ok
}

// RecordDelivery marks the report for date as emailed and persists the ledger.
func (m *Manager) RecordDelivery(date time.Time) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	k := m.key(date)
	m.history.Delivered[k] = m.now()
	m.history.LastReportDate = k
	return m.saveHistory()
}

// LastReportDate returns the most recently delivered report date, if any.
func (m *Manager) LastReportDate() string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.history.LastReportDate
}

func (m *Manager) HistoryFilePath() string {
	return m.historyFilePath
}
