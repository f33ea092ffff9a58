// Command mock-store serves a synthetic sigma-alert store for local
// development: a paginated alert feed plus the three timeline endpoints.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"
)

var (
	users     = []string{"alice", "bob", "carol", "dave", ""}
	computers = []string{"WS-0147", "WS-0212", "SRV-DC01", "SRV-FS02"}
	titles    = []string{
		"Suspicious PowerShell Download Cradle",
		"Possible Kerberoasting Activity",
		"LSASS Memory Access By Non-System Process",
		"New Scheduled Task Creation",
		"Outbound Connection To Rare Port",
	}
	tags = []string{
		"attack.initial_access,T1078",
		"attack.execution,T1059.001",
		"attack.credential_access,T1003.001",
		"attack.persistence,attack.privilege_escalation,T1053.005",
		"attack.command_and_control,T1571",
	}
	levels = []string{"low", "medium", "high", "critical"}
)

const totalAlerts = 137

func makeAlert(i int) map[string]any {
	risk := float64((i*17)%200) + 0.5
	raw := fmt.Sprintf(`{"EventID":%d,"CommandLine":"powershell.exe -enc QQB%d"}`, 4688+(i%3), i)
	return map[string]any{
		"id":            fmt.Sprintf("alert-%04d", i),
		"system_time":   time.Now().UTC().Add(-time.Duration(i) * 97 * time.Minute).Format(time.RFC3339),
		"title":         titles[i%len(titles)],
		"description":   "Synthetic alert generated by mock-store.",
		"tags":          tags[i%len(tags)],
		"raw":           raw,
		"user_id":       users[i%len(users)],
		"computer_name": computers[i%len(computers)],
		"rule_level":    levels[i%len(levels)],
		"risk":          risk,
		"ruleid":        fmt.Sprintf("rule-%03d", i%40),
		"provider_name": "Microsoft-Windows-Security-Auditing",
		"event_id":      strconv.Itoa(4688 + (i % 3)),
	}
}

func handleAlerts(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 {
		perPage = 50
	}

	start := (page - 1) * perPage
	end := start + perPage
	if start > totalAlerts {
		start = totalAlerts
	}
	if end > totalAlerts {
		end = totalAlerts
	}

	alerts := make([]map[string]any, 0, end-start)
	for i := start; i < end; i++ {
		alerts = append(alerts, makeAlert(i))
	}

	totalPages := (totalAlerts + perPage - 1) / perPage
	writeJSON(w, map[string]any{
		"alerts": alerts,
		"pagination": map[string]any{
			"current_page":  page,
			"per_page":      perPage,
			"total_pages":   totalPages,
			"total_records": totalAlerts,
		},
	})
}

func handleTimeline(keyColumn string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		key, _ := req[keyColumn].(string)
		if key == "" {
			writeJSON(w, map[string]any{"rows": []any{}})
			return
		}

		rows := make([]map[string]any, 0, 4)
		for i := 0; i < 4; i++ {
			last := time.Now().UTC().Add(-time.Duration(i+1) * 2 * time.Hour)
			rows = append(rows, map[string]any{
				keyColumn:         key,
				"title":           titles[i%len(titles)],
				"tags":            tags[i%len(tags)],
				"description":     "Synthetic timeline row generated by mock-store.",
				"rule_level":      levels[i%len(levels)],
				"risk":            float64(40 + i*45),
				"first_time_seen": last.Add(-45 * time.Minute).Format(time.RFC3339),
				"last_time_seen":  last.Format(time.RFC3339),
				"total_events":    3 + i,
			})
		}
		writeJSON(w, map[string]any{"rows": rows})
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}

func main() {
	addr := flag.String("addr", ":9308", "listen address")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/alerts", handleAlerts)
	mux.HandleFunc("/api/v1/timeline/user-origin", handleTimeline("user_origin"))
	mux.HandleFunc("/api/v1/timeline/user-impacted", handleTimeline("computer_name"))
	mux.HandleFunc("/api/v1/timeline/computer", handleTimeline("computer_name"))

	log.Printf("mock-store listening on %s", *addr)
	if err := http.ListenAndServe(*addr, logRequests(mux)); err != nil {
		log.Fatal(err)
	}
}
