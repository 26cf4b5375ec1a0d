// calendar-seed populates a running stack with demo data through the
// gateway: a recurring weekly rule, one standalone slot, and a session
// request, so the calendar views have something to show in local dev.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/coachcal/coachcal/libs/auth"
)

func main() {
	var (
		baseURL = flag.String("base-url", getenv("BASE_URL", "http://localhost:8080"), "gateway base url")
		coach   = flag.String("coach-id", getenv("COACH_ID", "coach-demo"), "coach id to seed")
		student = flag.String("student-id", getenv("STUDENT_ID", "student-demo"), "student id for the session request")
		secret  = flag.String("secret", getenv("JWT_SECRET", "dev-secret"), "gateway HS256 secret")
		weekday = flag.String("weekday", getenv("SEED_WEEKDAY", "tuesday"), "weekday for the recurring rule")
	)
	flag.Parse()

	coachToken, err := signToken(*coach, *coach, "coach", *secret)
	if err != nil {
		fatal(err.Error())
	}
	studentToken, err := signToken(*student, "", "student", *secret)
	if err != nil {
		fatal(err.Error())
	}

	now := time.Now().UTC()
	horizon := now.AddDate(0, 2, 0).Format("2006-01-02")

	post(*baseURL, "/api/v1/availability/recurring", coachToken, map[string]any{
		"day_of_week":  *weekday,
		"daily_start":  "09:00",
		"daily_end":    "12:00",
		"horizon_date": horizon,
	})

	slotStart := now.AddDate(0, 0, 3).Truncate(time.Hour)
	post(*baseURL, "/api/v1/availability", coachToken, map[string]any{
		"start_time": slotStart.Format(time.RFC3339),
		"end_time":   slotStart.Add(2 * time.Hour).Format(time.RFC3339),
	})

	post(*baseURL, "/api/v1/sessions/request", studentToken, map[string]any{
		"coach_id":   *coach,
		"offering":   "intro call",
		"kind":       "individual",
		"start_time": slotStart.Format(time.RFC3339),
		"end_time":   slotStart.Add(30 * time.Minute).Format(time.RFC3339),
	})
}

func signToken(sub, coachID, role, secret string) (string, error) {
	return auth.SignHS256(auth.Claims{
		Sub:     sub,
		CoachID: coachID,
		Role:    role,
		Iat:     time.Now().Unix(),
		Exp:     time.Now().Add(1 * time.Hour).Unix(),
	}, secret)
}

func post(baseURL, path, token string, body map[string]any) {
	payload, err := json.Marshal(body)
	if err != nil {
		fatal(err.Error())
	}
	req, err := http.NewRequest(http.MethodPost, strings.TrimRight(baseURL, "/")+path, bytes.NewReader(payload))
	if err != nil {
		fatal(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fatal(err.Error())
	}
	defer resp.Body.Close()

	out, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	fmt.Printf("%s status=%d body=%s\n", path, resp.StatusCode, strings.TrimSpace(string(out)))
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, "error: "+msg)
	os.Exit(1)
}
