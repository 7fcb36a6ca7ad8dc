package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alejandrodnm/polyclaw/internal/domain"
)

// legacyTimeLayouts covers RFC3339 and naive ISO timestamps without zone.
var legacyTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// JSONFileStorage keeps the ledger in a single JSON document, in the same
// layout as auto_portfolio.json, so existing portfolios load unchanged.
type JSONFileStorage struct {
	path string
}

func NewJSONFileStorage(path string) *JSONFileStorage {
	return &JSONFileStorage{path: path}
}

type ledgerDoc struct {
	StartingBalance float64                `json:"starting_balance,omitempty"`
	Balance         float64                `json:"balance"`
	Positions       map[string]positionDoc `json:"positions"`
	History         []tradeDoc             `json:"history"`
	DailySnapshots  []domain.DailySnapshot `json:"daily_snapshots"`
	Created         string                 `json:"created"`
	LastTrade       *string                `json:"last_trade"`
}

type positionDoc struct {
	MarketID string  `json:"market_id"`
	Question string  `json:"question"`
	Side     string  `json:"side"`
	Shares   float64 `json:"shares"`
	AvgPrice float64 `json:"avg_price"`
	BoughtAt string  `json:"bought_at"`
	Strategy string  `json:"strategy,omitempty"`
	Score    int     `json:"score,omitempty"`
}

type tradeDoc struct {
	ID       string  `json:"id,omitempty"`
	Action   string  `json:"action"`
	MarketID string  `json:"market_id,omitempty"`
	Question string  `json:"question"`
	Side     string  `json:"side"`
	Price    float64 `json:"price"`
	Amount   float64 `json:"amount,omitempty"`
	Shares   float64 `json:"shares"`
	Proceeds float64 `json:"proceeds,omitempty"`
	Profit   float64 `json:"profit,omitempty"`
	Reason   string  `json:"reason,omitempty"`
	Strategy string  `json:"strategy,omitempty"`
	Time     string  `json:"time"`
}

// Load reads the document. A missing file is domain.ErrLedgerNotFound.
func (s *JSONFileStorage) Load(_ context.Context) (*domain.Ledger, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrLedgerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage.JSONFile.Load: %w", err)
	}

	var doc ledgerDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("storage.JSONFile.Load: parse %s: %w", s.path, err)
	}
	return doc.toLedger(), nil
}

// Save writes to a temp file in the same directory and renames it over the
// target, so readers never see a half-written document.
func (s *JSONFileStorage) Save(_ context.Context, l *domain.Ledger) error {
	data, err := json.MarshalIndent(fromLedger(l), "", "  ")
	if err != nil {
		return fmt.Errorf("storage.JSONFile.Save: encode: %w", err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("storage.JSONFile.Save: %w", err)
	}
	return nil
}

func (s *JSONFileStorage) Close() error { return nil }

func (d ledgerDoc) toLedger() *domain.Ledger {
	l := &domain.Ledger{
		StartingBalance: d.StartingBalance,
		Balance:         d.Balance,
		Positions:       make(map[string]*domain.Position, len(d.Positions)),
		Snapshots:       d.DailySnapshots,
		CreatedAt:       parseLegacyTime(d.Created),
	}
	if d.LastTrade != nil && *d.LastTrade != "" {
		t := parseLegacyTime(*d.LastTrade)
		l.LastTradeAt = &t
	}

	// Older documents prefix keys with the strategy; re-key by (market, side).
	for _, p := range d.Positions {
		strategy := p.Strategy
		if strategy == "" {
			strategy = string(domain.StrategyFear)
		}
		pos := &domain.Position{
			MarketID:   p.MarketID,
			Question:   p.Question,
			Side:       domain.Side(p.Side),
			Shares:     p.Shares,
			AvgPrice:   p.AvgPrice,
			OpenedAt:   parseLegacyTime(p.BoughtAt),
			Strategy:   domain.StrategyTag(strategy),
			EntryScore: p.Score,
		}
		l.Positions[pos.Key()] = pos
	}

	for _, t := range d.History {
		l.History = append(l.History, domain.TradeRecord{
			ID:         t.ID,
			Action:     domain.TradeAction(t.Action),
			MarketID:   t.MarketID,
			Question:   t.Question,
			Side:       domain.Side(t.Side),
			Price:      t.Price,
			Amount:     t.Amount,
			Shares:     t.Shares,
			Strategy:   domain.StrategyTag(t.Strategy),
			At:         parseLegacyTime(t.Time),
			Proceeds:   t.Proceeds,
			Profit:     t.Profit,
			ExitReason: domain.ExitReason(t.Reason),
		})
	}
	return l
}

func fromLedger(l *domain.Ledger) ledgerDoc {
	doc := ledgerDoc{
		StartingBalance: l.StartingBalance,
		Balance:         l.Balance,
		Positions:       make(map[string]positionDoc, len(l.Positions)),
		History:         make([]tradeDoc, 0, len(l.History)),
		DailySnapshots:  l.Snapshots,
		Created:         l.CreatedAt.UTC().Format(timeLayout),
	}
	if doc.DailySnapshots == nil {
		doc.DailySnapshots = []domain.DailySnapshot{}
	}
	if l.LastTradeAt != nil {
		v := l.LastTradeAt.UTC().Format(timeLayout)
		doc.LastTrade = &v
	}
	for key, p := range l.Positions {
		doc.Positions[key] = positionDoc{
			MarketID: p.MarketID,
			Question: p.Question,
			Side:     string(p.Side),
			Shares:   p.Shares,
			AvgPrice: p.AvgPrice,
			BoughtAt: p.OpenedAt.UTC().Format(timeLayout),
			Strategy: string(p.Strategy),
			Score:    p.EntryScore,
		}
	}
	for _, t := range l.History {
		doc.History = append(doc.History, tradeDoc{
			ID:       t.ID,
			Action:   string(t.Action),
			MarketID: t.MarketID,
			Question: t.Question,
			Side:     string(t.Side),
			Price:    t.Price,
			Amount:   t.Amount,
			Shares:   t.Shares,
			Proceeds: t.Proceeds,
			Profit:   t.Profit,
			Reason:   string(t.ExitReason),
			Strategy: string(t.Strategy),
			Time:     t.At.UTC().Format(timeLayout),
		})
	}
	return doc
}

// parseLegacyTime reads zoned timestamps as-is and naive ones as local time.
func parseLegacyTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	for _, layout := range legacyTimeLayouts[1:] {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// JSONTriggerFile is the trigger_trade.json hand-off file written by the
// price monitor. It only ever holds the latest trigger.
type JSONTriggerFile struct {
	path string
}

func NewJSONTriggerFile(path string) *JSONTriggerFile {
	return &JSONTriggerFile{path: path}
}

type triggerDoc struct {
	ID          string              `json:"id,omitempty"`
	TriggeredAt string              `json:"triggered_at"`
	Alerts      []domain.PriceAlert `json:"alerts"`
	Summary     []string            `json:"summary,omitempty"`
	Status      string              `json:"status"`
}

func (s *JSONTriggerFile) read() (triggerDoc, error) {
	var doc triggerDoc
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return doc, domain.ErrTriggerNotFound
	}
	if err != nil {
		return doc, err
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("parse %s: %w", s.path, err)
	}
	// Files written by the monitor carry no id; the timestamp identifies them.
	if doc.ID == "" {
		doc.ID = doc.TriggeredAt
	}
	return doc, nil
}

func (s *JSONTriggerFile) Latest(_ context.Context) (*domain.Trigger, error) {
	doc, err := s.read()
	if err != nil {
		if errors.Is(err, domain.ErrTriggerNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("storage.JSONTriggerFile.Latest: %w", err)
	}
	return &domain.Trigger{
		ID:          doc.ID,
		Alerts:      doc.Alerts,
		TriggeredAt: parseLegacyTime(doc.TriggeredAt),
		Status:      domain.TriggerStatus(doc.Status),
	}, nil
}

// MarkProcessed rewrites the file only if it still holds trigger id.
func (s *JSONTriggerFile) MarkProcessed(_ context.Context, id string) error {
	doc, err := s.read()
	if err != nil {
		if errors.Is(err, domain.ErrTriggerNotFound) {
			return nil
		}
		return fmt.Errorf("storage.JSONTriggerFile.MarkProcessed: %w", err)
	}
	if doc.ID != id || doc.Status == string(domain.TriggerProcessed) {
		return nil
	}
	doc.Status = string(domain.TriggerProcessed)
	return s.write(doc)
}

func (s *JSONTriggerFile) Publish(_ context.Context, t domain.Trigger) error {
	status := t.Status
	if status == "" {
		status = domain.TriggerPending
	}
	return s.write(triggerDoc{
		ID:          t.ID,
		TriggeredAt: t.TriggeredAt.UTC().Format(timeLayout),
		Alerts:      t.Alerts,
		Status:      string(status),
	})
}

func (s *JSONTriggerFile) write(doc triggerDoc) error {
	if doc.Alerts == nil {
		doc.Alerts = []domain.PriceAlert{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("storage.JSONTriggerFile: encode: %w", err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("storage.JSONTriggerFile: %w", err)
	}
	return nil
}
