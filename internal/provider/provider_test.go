package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GarnettJZ/makan-apa/internal/contract"
	"github.com/GarnettJZ/makan-apa/schema"
	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apuPage = `<html><body>
<table><tr><td>Layout <table><tr><td>nested</td></tr></table></td></tr></table>
<table>
  <tr><td colspan="6">Weekly Timetable APD3F2601CS(CYB)</td></tr>
  <tr><th>DATE</th><th>TIME</th><th>CLASSROOM</th><th>LOCATION</th><th>SUBJECT/MODULE</th><th>LECTURER</th></tr>
  <tr><td>MON, 12-JAN-2026</td><td>08:30 - 10:30</td><td>B-06-05</td><td>NEW CAMPUS</td><td>CT047-3-3-CSEC-L</td><td>Dr  Lim</td></tr>
  <tr><td></td><td></td><td></td><td></td><td></td><td></td></tr>
  <tr><td>WED, 14-JAN-2026</td><td>13:30 - 15:30</td><td>Tech Lab 4-03</td><td>NEW CAMPUS</td><td>CT124-3-3-DFOR-LAB</td><td>Ms Tan</td></tr>
</table>
</body></html>`

var (
	week   = time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	person = schema.PersonRef{Intake: "APD3F2601CS(CYB)", Group: "G3"}
)

func noRetryDelay(t *testing.T) {
	orig := newBackOff
	newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	t.Cleanup(func() { newBackOff = orig })
}

func TestAPUFetchEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2026-01-12", q.Get("Week"))
		assert.Equal(t, "APD3F2601CS(CYB)", q.Get("Intake"))
		assert.Equal(t, "G3", q.Get("Intake_Group"))
		assert.Equal(t, "print_tt", q.Get("print_request"))
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla/5.0")
		assert.Equal(t, "none", r.Header.Get("Sec-Fetch-Site"))
		_, _ = fmt.Fprint(w, apuPage)
	}))
	defer srv.Close()

	p := NewAPU(srv.URL+"/timetable-print/index.php", newFetcher(5*time.Second, 0))
	assert.Equal(t, "apu", p.Name())

	events, err := p.FetchEvents(context.Background(), person, week)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, schema.RawEvent{
		PersonID:  "APD3F2601CS(CYB):G3",
		Day:       "MON, 12-JAN-2026",
		TimeRange: "08:30 - 10:30",
		ModuleID:  "CT047-3-3-CSEC-L",
		Room:      "B-06-05",
		Lecturer:  "Dr Lim",
	}, events[0])
	assert.Equal(t, "WED, 14-JAN-2026", events[1].Day)
	assert.Equal(t, "CT124-3-3-DFOR-LAB", events[1].ModuleID)
}

func TestAPUBlocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, "<html>Do not manupulate the request</html>")
	}))
	defer srv.Close()

	_, err := NewAPU(srv.URL, newFetcher(5*time.Second, 0)).FetchEvents(context.Background(), person, week)
	assert.ErrorIs(t, err, ErrBlocked)
}

func TestAPUNoTimetable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, "<html><table><tr><td>Nothing here</td></tr></table></html>")
	}))
	defer srv.Close()

	_, err := NewAPU(srv.URL, newFetcher(5*time.Second, 0)).FetchEvents(context.Background(), person, week)
	assert.ErrorIs(t, err, ErrNoTimetable)
}

func TestFetcherRetries(t *testing.T) {
	noRetryDelay(t)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	body, err := newFetcher(5*time.Second, 0).get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetcherGivesUp(t *testing.T) {
	noRetryDelay(t)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newFetcher(5*time.Second, 0).get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Equal(t, int32(maxRetries+1), calls.Load())
}

func TestFetcherClientErrorIsPermanent(t *testing.T) {
	noRetryDelay(t)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newFetcher(5*time.Second, 0).get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetcherCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newFetcher(5*time.Second, 1).get(ctx, "http://127.0.0.1:1", nil)
	assert.True(t, errors.Is(err, context.Canceled), err)
}

const apspaceFeed = `[
 {"INTAKE":"APD3F2601CS(CYB)","GROUPING":"G3","DAY":"MON","DATESTAMP_ISO":"2026-01-12",
  "TIME_FROM_ISO":"2026-01-12T09:00:00+08:00","TIME_TO_ISO":"2026-01-12T11:00:00+08:00",
  "MODID":"CT047-3-3-CSEC-T","MODULE_NAME":"Cyber Security","ROOM":"B-04-01","LOCATION":"NEW CAMPUS","NAME":"Dr Lim"},
 {"INTAKE":"APD3F2601CS(CYB)","GROUPING":"G1","DAY":"MON","DATESTAMP_ISO":"2026-01-12",
  "TIME_FROM_ISO":"2026-01-12T14:00:00+08:00","TIME_TO_ISO":"2026-01-12T16:00:00+08:00","MODID":"X-L"},
 {"INTAKE":"APD3F2601IT(CE)","GROUPING":"G3","DAY":"TUE","DATESTAMP_ISO":"2026-01-13",
  "TIME_FROM_ISO":"2026-01-13T09:00:00+08:00","TIME_TO_ISO":"2026-01-13T10:00:00+08:00","MODID":"Y-L"}
]`

func TestAPSpaceFetchEvents(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, apspaceFeed)
	}))
	defer srv.Close()

	p := NewAPSpace(srv.URL, newFetcher(5*time.Second, 0))
	assert.Equal(t, "apspace", p.Name())

	events, err := p.FetchEvents(context.Background(), schema.PersonRef{Name: "me", Intake: "apd3f2601cs(cyb)", Group: "g3"}, week)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, schema.RawEvent{
		PersonID:   "me",
		Day:        "MON",
		Date:       "2026-01-12",
		StartISO:   "2026-01-12T09:00:00+08:00",
		EndISO:     "2026-01-12T11:00:00+08:00",
		ModuleName: "Cyber Security",
		ModuleID:   "CT047-3-3-CSEC-T",
		Location:   "NEW CAMPUS",
		Room:       "B-04-01",
		Lecturer:   "Dr Lim",
	}, events[0])

	// Intake without a group takes every group; the feed is downloaded once
	events, err = p.FetchEvents(context.Background(), schema.PersonRef{Intake: "APD3F2601CS(CYB)"}, week)
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, int32(1), calls.Load())

	// Unknown intakes yield an empty schedule, not an error
	events, err = p.FetchEvents(context.Background(), schema.PersonRef{Intake: "NOPE"}, week)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestAPSpaceFeedExpires(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = fmt.Fprint(w, apspaceFeed)
	}))
	defer srv.Close()

	clock := time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC)
	p := NewAPSpace(srv.URL, newFetcher(5*time.Second, 0))
	p.now = func() time.Time { return clock }

	_, err := p.FetchEvents(context.Background(), person, week)
	require.NoError(t, err)
	clock = clock.Add(2 * feedReuse)
	_, err = p.FetchEvents(context.Background(), person, week)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAPSpaceBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, "<html>maintenance</html>")
	}))
	defer srv.Close()

	_, err := NewAPSpace(srv.URL, newFetcher(5*time.Second, 0)).FetchEvents(context.Background(), person, week)
	assert.ErrorIs(t, err, ErrNoTimetable)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileProviderJSON(t *testing.T) {
	path := writeFile(t, "tt.json", `[
		{"person_id":"alice","day":"Mon","time_range":"09:00-11:00","module_id":"A-L"},
		{"person_id":"APD3F2601CS(CYB):G3","day":"Tue","time_range":"10:00-12:00"},
		{"person_id":"bob","day":"Wed","time_range":"09:00-10:00"}
	]`)
	p := NewFile(path)
	assert.Equal(t, "file", p.Name())

	events, err := p.FetchEvents(context.Background(), schema.PersonRef{Name: "alice", Intake: "APD3F2601CS(CYB)", Group: "G3"}, week)
	require.NoError(t, err)
	require.Len(t, events, 2)
	for _, e := range events {
		assert.Equal(t, "alice", e.PersonID)
	}
	assert.Equal(t, "A-L", events[0].ModuleID)
}

func TestFileProviderCSV(t *testing.T) {
	path := writeFile(t, "tt.csv", strings.Join([]string{
		"person_id, day, time_range, module_name, room, extra",
		"bob,Mon,09:00-11:00,Networks,B-01,ignored",
		"bob,Wed,13:00-14:00,Databases,B-02,",
		"carol,Mon,09:00-10:00,Other,B-03,",
	}, "\n"))

	events, err := NewFile(path).FetchEvents(context.Background(), schema.PersonRef{Name: "bob", Intake: "X"}, week)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, schema.RawEvent{PersonID: "bob", Day: "Mon", TimeRange: "09:00-11:00", ModuleName: "Networks", Room: "B-01"}, events[0])
}

func TestFileProviderErrors(t *testing.T) {
	_, err := NewFile(filepath.Join(t.TempDir(), "missing.json")).FetchEvents(context.Background(), person, week)
	assert.Error(t, err)

	_, err = NewFile(writeFile(t, "tt.txt", "x")).FetchEvents(context.Background(), person, week)
	assert.Error(t, err)

	_, err = NewFile(writeFile(t, "tt.json", "{not json")).FetchEvents(context.Background(), person, week)
	assert.Error(t, err)

	events, err := NewFile(writeFile(t, "empty.csv", "")).FetchEvents(context.Background(), person, week)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestNew(t *testing.T) {
	cfg := &contract.Config{Source: schema.APUSource, SourceURL: contract.DefaultAPUURL, Timeout: time.Second, RateLimit: 1}
	p, err := New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &APUProvider{}, p)

	cfg.Source = schema.APSpaceSource
	p, err = New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &APSpaceProvider{}, p)

	cfg.Source = schema.FileSource
	cfg.SourceFile = "tt.json"
	p, err = New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &FileProvider{}, p)

	cfg.Source = "moodle"
	_, err = New(cfg)
	assert.ErrorIs(t, err, contract.ErrInvalidConfiguration)
}
