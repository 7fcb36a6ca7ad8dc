package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/alejandrodnm/polyclaw/internal/domain"
	"github.com/alejandrodnm/polyclaw/internal/ports"
	"github.com/olekukonko/tablewriter"
)

// Format selecciona cómo se imprime la salida.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// Console implementa ports.Notifier escribiendo a un io.Writer.
type Console struct {
	out     io.Writer
	format  Format
	verbose bool
	now     func() time.Time
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(format Format, verbose bool) *Console {
	return NewConsoleWriter(os.Stdout, format, verbose)
}

// NewConsoleWriter crea un notificador sobre w; útil en tests.
func NewConsoleWriter(w io.Writer, format Format, verbose bool) *Console {
	if format != FormatJSON {
		format = FormatTable
	}
	return &Console{out: w, format: format, verbose: verbose, now: time.Now}
}

// NotifyCycle imprime las acciones del ciclo y el resumen del portfolio.
func (c *Console) NotifyCycle(_ context.Context, actions []domain.Action, r domain.Report) error {
	if c.format == FormatJSON {
		return c.writeJSON(struct {
			Actions []domain.Action `json:"actions"`
			Report  domain.Report   `json:"report"`
		}{actions, r})
	}

	ts := c.now().Format("15:04:05")
	if len(actions) == 0 {
		fmt.Fprintf(c.out, "[%s] no trades | %s\n", ts, summaryLine(r))
	} else {
		fmt.Fprintf(c.out, "\n[%s] %d trades\n", ts, len(actions))
		for _, a := range actions {
			fmt.Fprintln(c.out, "  "+actionLine(a))
		}
		fmt.Fprintf(c.out, "  %s\n", summaryLine(r))
	}

	if c.verbose && len(r.Positions) > 0 {
		c.printPositions(r.Positions)
	}
	return nil
}

// PrintReport imprime el estado completo del portfolio.
func (c *Console) PrintReport(r domain.Report) error {
	if c.format == FormatJSON {
		return c.writeJSON(r)
	}

	fmt.Fprintf(c.out, "\n=== PORTFOLIO (%s) ===\n", r.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(c.out, "  Cash:       $%.2f\n", r.Balance)
	fmt.Fprintf(c.out, "  Positions:  $%.2f (%d open)\n", r.PositionsValue, r.PositionCount)
	fmt.Fprintf(c.out, "  Total:      $%.2f\n", r.TotalValue)
	fmt.Fprintf(c.out, "  P&L:        %s (%+.2f%%)\n", money(r.TotalPnL), r.TotalPnLPct)
	fmt.Fprintf(c.out, "  Trades:     %d total, %d in last 24h\n", r.TotalTrades, r.RecentTrades24h)

	if len(r.Positions) > 0 {
		c.printPositions(r.Positions)
	}

	if len(r.RecentTrades) > 0 {
		fmt.Fprintln(c.out, "\n  Recent trades:")
		for _, t := range r.RecentTrades {
			line := fmt.Sprintf("    %s %s %-4s %s @ %.3f $%.2f [%s]",
				t.At.Format("01-02 15:04"), strings.ToUpper(string(t.Action)),
				strings.ToUpper(string(t.Side)), domain.TruncateQuestion(t.Question, t.MarketID, 40),
				t.Price, t.Amount, t.Strategy)
			if t.Action == domain.ActionSell {
				line += fmt.Sprintf(" %s %s", t.ExitReason, money(t.Profit))
			}
			fmt.Fprintln(c.out, line)
		}
	}
	fmt.Fprintln(c.out)
	return nil
}

// PrintWeekly imprime el resumen semanal con estadísticas por estrategia.
func (c *Console) PrintWeekly(w domain.WeeklySummary) error {
	if c.format == FormatJSON {
		return c.writeJSON(w)
	}

	r := w.Report
	fmt.Fprintf(c.out, "\n=== WEEKLY SUMMARY (%s) ===\n", r.GeneratedAt.Format("2006-01-02"))
	fmt.Fprintf(c.out, "  Total value:  $%.2f  P&L %s (%+.2f%%)\n", r.TotalValue, money(r.TotalPnL), r.TotalPnLPct)
	fmt.Fprintf(c.out, "  Closed:       %d wins / %d losses  win rate %.1f%%\n", w.Wins, w.Losses, w.WinRate)
	fmt.Fprintf(c.out, "  Realized:     %s\n", money(w.RealizedProfit))

	if len(w.StrategyStats) > 0 {
		tags := make([]string, 0, len(w.StrategyStats))
		for tag := range w.StrategyStats {
			tags = append(tags, string(tag))
		}
		sort.Strings(tags)

		table := tablewriter.NewWriter(c.out)
		table.Header("Strategy", "Closed", "Wins", "Losses", "Profit")
		for _, tag := range tags {
			s := w.StrategyStats[domain.StrategyTag(tag)]
			table.Append(tag,
				fmt.Sprintf("%d", s.Trades),
				fmt.Sprintf("%d", s.Wins),
				fmt.Sprintf("%d", s.Losses),
				money(s.Profit),
			)
		}
		table.Render()
	}

	if len(w.Snapshots) > 0 {
		fmt.Fprintln(c.out, "\n  Daily snapshots:")
		for _, s := range w.Snapshots {
			fmt.Fprintf(c.out, "    %s  $%.2f  %s  %d pos\n", s.Date, s.TotalValue, money(s.PnL), s.Positions)
		}
	}
	fmt.Fprintln(c.out)
	return nil
}

// PrintSnapshot confirma el snapshot diario registrado.
func (c *Console) PrintSnapshot(s domain.DailySnapshot) error {
	if c.format == FormatJSON {
		return c.writeJSON(s)
	}
	fmt.Fprintf(c.out, "snapshot %s: total $%.2f  P&L %s  %d positions\n", s.Date, s.TotalValue, money(s.PnL), s.Positions)
	return nil
}

func (c *Console) printPositions(positions []domain.PositionDetail) {
	table := tablewriter.NewWriter(c.out)
	table.Header("Strat", "Market", "Side", "Shares", "Avg", "Now", "Value", "P&L", "P&L%")
	for _, p := range positions {
		now := fmt.Sprintf("%.3f", p.CurrentPrice)
		if p.Stale {
			now += "*"
		}
		table.Append(
			string(p.Strategy),
			domain.TruncateQuestion(p.Question, p.MarketID, 45),
			strings.ToUpper(string(p.Side)),
			fmt.Sprintf("%.2f", p.Shares),
			fmt.Sprintf("%.3f", p.AvgPrice),
			now,
			fmt.Sprintf("$%.2f", p.Value),
			money(p.PnL),
			fmt.Sprintf("%+.1f%%", p.PnLPct),
		)
	}
	table.Render()
	fmt.Fprintln(c.out, "  * = market not in current snapshot, valued at entry")
}

func (c *Console) writeJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("notify.Console: encode: %w", err)
	}
	return nil
}

func actionLine(a domain.Action) string {
	q := domain.TruncateQuestion(a.Question, a.MarketID, 50)
	side := strings.ToUpper(string(a.Side))
	if a.Kind == domain.ActionExit {
		return fmt.Sprintf("SELL [%s] %s %s @ %.3f (%s, %+.1f%%) %s",
			a.Strategy, side, q, a.Price, a.Reason, a.PnLPct, money(a.Profit))
	}
	return fmt.Sprintf("BUY  [%s] %s %s @ %.3f $%.2f score %d",
		a.Strategy, side, q, a.Price, a.Amount, a.Score)
}

func summaryLine(r domain.Report) string {
	return fmt.Sprintf("cash $%.2f | %d pos | total $%.2f | P&L %s (%+.2f%%)",
		r.Balance, r.PositionCount, r.TotalValue, money(r.TotalPnL), r.TotalPnLPct)
}

func money(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("+$%.2f", v)
}

var _ ports.Notifier = (*Console)(nil)
