// Package dashboard serves charts of the most recent poll cycle.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/qepting91/campsite-watcher/internal/domain"
	"github.com/qepting91/campsite-watcher/internal/storage"
)

// NewHandler exposes "/" (charts) and "/api/latest" (JSON snapshot).
func NewHandler(store *storage.SnapshotStore, cfg domain.PollConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		snap := store.Snapshot()
		nights, matches := tally(snap.Latest, cfg.CampgroundIDs)

		subtitle := "no poll has finished yet"
		if snap.Latest != nil {
			subtitle = fmt.Sprintf("%s: %s at %s", snap.Latest.Label, snap.Latest.Outcome, snap.Latest.FinishedAt.Format(time.RFC1123))
		}

		// 1. Open nights per campground
		bar := charts.NewBar()
		bar.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{Title: "Available Nights", Subtitle: subtitle}),
			charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		)
		var barY []opts.BarData
		for _, id := range cfg.CampgroundIDs {
			barY = append(barY, opts.BarData{Value: nights[id]})
		}
		bar.SetXAxis(cfg.CampgroundIDs).AddSeries("Nights", barY)

		// 2. Qualifying sites
		pie := charts.NewPie()
		pie.SetGlobalOptions(charts.WithTitleOpts(opts.Title{
			Title:    "Qualifying Sites",
			Subtitle: fmt.Sprintf("%d+ consecutive nights", cfg.MinNights),
		}))
		var pieItems []opts.PieData
		for _, id := range cfg.CampgroundIDs {
			if matches[id] > 0 {
				pieItems = append(pieItems, opts.PieData{Name: id, Value: matches[id]})
			}
		}
		pie.AddSeries("Sites", pieItems)

		bar.Render(w)
		pie.Render(w)
	})

	mux.HandleFunc("/api/latest", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(store.Snapshot())
	})

	return mux
}

// tally counts open nights and qualifying sites per campground.
func tally(latest *domain.CycleResult, campgrounds []string) (nights, matches map[string]int) {
	nights = make(map[string]int, len(campgrounds))
	matches = make(map[string]int, len(campgrounds))
	if latest == nil {
		return nights, matches
	}
	for _, rec := range latest.Records {
		nights[rec.CampgroundID] += len(rec.AvailableDates)
	}
	for _, m := range latest.Matches {
		matches[m.CampgroundID]++
	}
	return nights, matches
}

// Serve listens on port until ctx is cancelled.
func Serve(ctx context.Context, port string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
