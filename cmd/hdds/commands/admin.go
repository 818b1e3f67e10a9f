package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/naskel/hdds/internal/cli/output"
)

var (
	adminHost   string
	adminPort   int
	adminToken  string
	adminFormat string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Query a running participant's admin snapshot API",
	Long: `Admin queries the read-only snapshot API exposed by a running
"hdds start" process (enabled via admin.enabled in the configuration file).

Examples:
  hdds admin participants
  hdds admin endpoints <participant-guid> --output json
  hdds admin stats -o yaml`,
}

func init() {
	adminCmd.PersistentFlags().StringVar(&adminHost, "host", "127.0.0.1", "admin API host")
	adminCmd.PersistentFlags().IntVar(&adminPort, "port", 8081, "admin API port")
	adminCmd.PersistentFlags().StringVar(&adminToken, "token", "", "bearer token, if the admin API requires JWT auth")
	adminCmd.PersistentFlags().StringVarP(&adminFormat, "output", "o", "table", "output format: table, json, yaml")

	adminCmd.AddCommand(adminParticipantsCmd)
	adminCmd.AddCommand(adminEndpointsCmd)
	adminCmd.AddCommand(adminWriterProxiesCmd)
	adminCmd.AddCommand(adminReaderProxiesCmd)
	adminCmd.AddCommand(adminStatsCmd)
}

var adminParticipantsCmd = &cobra.Command{
	Use:   "participants",
	Short: "List discovered participants",
	RunE: func(cmd *cobra.Command, args []string) error {
		var rows participantRows
		if err := adminGet("/participants", &rows); err != nil {
			return err
		}
		return printAdmin(rows)
	},
}

var adminEndpointsCmd = &cobra.Command{
	Use:   "endpoints <participant-guid>",
	Short: "List a participant's locally owned endpoints",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var rows endpointRows
		if err := adminGet(fmt.Sprintf("/participants/%s/endpoints", args[0]), &rows); err != nil {
			return err
		}
		return printAdmin(rows)
	},
}

var adminWriterProxiesCmd = &cobra.Command{
	Use:   "writerproxies <endpoint-guid>",
	Short: "List the writer proxies matched to a local reader",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var rows proxyRows
		if err := adminGet(fmt.Sprintf("/endpoints/%s/writerproxies", args[0]), &rows); err != nil {
			return err
		}
		return printAdmin(rows)
	},
}

var adminReaderProxiesCmd = &cobra.Command{
	Use:   "readerproxies <endpoint-guid>",
	Short: "List the reader proxies matched to a local writer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var rows proxyRows
		if err := adminGet(fmt.Sprintf("/endpoints/%s/readerproxies", args[0]), &rows); err != nil {
			return err
		}
		return printAdmin(rows)
	},
}

var adminStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate occupancy and hotswap counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		var stats statsView
		if err := adminGet("/stats", &stats); err != nil {
			return err
		}
		return printAdmin(stats)
	},
}

// adminResponse mirrors internal/admin.Response without importing the
// internal package; the admin API is a stable HTTP contract, not a Go API.
type adminResponse struct {
	Status    string          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
}

func adminGet(path string, into any) error {
	url := fmt.Sprintf("http://%s:%s%s", adminHost, strconv.Itoa(adminPort), path)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if adminToken != "" {
		req.Header.Set("Authorization", "Bearer "+adminToken)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach admin API at %s: %w", url, err)
	}
	defer resp.Body.Close()

	var body adminResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("failed to decode admin API response: %w", err)
	}
	if body.Status != "ok" {
		return fmt.Errorf("admin API error: %s", body.Error)
	}
	if into == nil {
		return nil
	}
	return json.Unmarshal(body.Data, into)
}

func printAdmin(data any) error {
	format, err := output.ParseFormat(adminFormat)
	if err != nil {
		return err
	}
	return output.NewPrinter(rootCmd.OutOrStdout(), format, true).Print(data)
}

type participantSummary struct {
	GUID            string   `json:"guid"`
	Name            string   `json:"name,omitempty"`
	Dialect         string   `json:"dialect"`
	VendorID        string   `json:"vendor_id"`
	LeaseDurationMS int64    `json:"lease_duration_ms"`
	Locators        []string `json:"locators"`
}

type participantRows []participantSummary

func (r participantRows) Headers() []string { return []string{"GUID", "Name", "Dialect", "Vendor", "Lease (ms)"} }
func (r participantRows) Rows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, p := range r {
		rows = append(rows, []string{p.GUID, p.Name, p.Dialect, p.VendorID, strconv.FormatInt(p.LeaseDurationMS, 10)})
	}
	return rows
}

type endpointSummary struct {
	GUID     string `json:"guid"`
	Kind     string `json:"kind"`
	Topic    string `json:"topic"`
	TypeName string `json:"type_name"`
}

type endpointRows []endpointSummary

func (r endpointRows) Headers() []string { return []string{"GUID", "Kind", "Topic", "Type"} }
func (r endpointRows) Rows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, e := range r {
		rows = append(rows, []string{e.GUID, e.Kind, e.Topic, e.TypeName})
	}
	return rows
}

type proxySummary struct {
	GUID          string   `json:"guid"`
	Locators      []string `json:"locators"`
	MissingCount  int      `json:"missing_count,omitempty"`
	HighestSeqNum int64    `json:"highest_seq_num,omitempty"`
}

type proxyRows []proxySummary

func (r proxyRows) Headers() []string { return []string{"GUID", "Locators", "Missing", "Highest Seq"} }
func (r proxyRows) Rows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, p := range r {
		rows = append(rows, []string{
			p.GUID,
			fmt.Sprint(p.Locators),
			strconv.Itoa(p.MissingCount),
			strconv.FormatInt(p.HighestSeqNum, 10),
		})
	}
	return rows
}

type historyOccupancy struct {
	GUID        string `json:"guid"`
	Kind        string `json:"kind"`
	Topic       string `json:"topic"`
	SampleCount int    `json:"sample_count"`
	Bytes       int64  `json:"bytes"`
}

type dialectOverlapStats struct {
	Peer  string `json:"peer"`
	RxOld int64  `json:"rx_old"`
	RxNew int64  `json:"rx_new"`
	Loss  int64  `json:"loss"`
}

type statsView struct {
	ParticipantCount int                   `json:"participant_count"`
	WriterCount      int                   `json:"writer_count"`
	ReaderCount      int                   `json:"reader_count"`
	HistoryCache     []historyOccupancy    `json:"history_cache"`
	DialectOverlap   []dialectOverlapStats `json:"dialect_overlap,omitempty"`
}

func (s statsView) Headers() []string { return []string{"Metric", "Value"} }
func (s statsView) Rows() [][]string {
	rows := [][]string{
		{"participants", strconv.Itoa(s.ParticipantCount)},
		{"writers", strconv.Itoa(s.WriterCount)},
		{"readers", strconv.Itoa(s.ReaderCount)},
	}
	for _, h := range s.HistoryCache {
		rows = append(rows, []string{
			fmt.Sprintf("history[%s %s]", h.Kind, h.Topic),
			fmt.Sprintf("%d samples, %d bytes", h.SampleCount, h.Bytes),
		})
	}
	for _, d := range s.DialectOverlap {
		rows = append(rows, []string{
			fmt.Sprintf("hotswap[%s]", d.Peer),
			fmt.Sprintf("old=%d new=%d loss=%d", d.RxOld, d.RxNew, d.Loss),
		})
	}
	return rows
}
