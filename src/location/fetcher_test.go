package location

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"vai-alert/src/helpers"
	"vai-alert/src/models"
)

// stubProvider scripts the positioning driver for fetcher tests.
type stubProvider struct {
	auth       models.MAuthStatus
	startErr   error
	fix        *models.MLocation
	fixDelay   time.Duration
	closeEarly bool

	mu     sync.Mutex
	starts int
	stops  int
}

func (s *stubProvider) Authorization() models.MAuthStatus { return s.auth }

func (s *stubProvider) AuthorizationChanges() <-chan models.MAuthStatus { return nil }

func (s *stubProvider) Start() (<-chan models.MLocation, error) {
	s.mu.Lock()
	s.starts++
	s.mu.Unlock()

	if s.startErr != nil {
		return nil, s.startErr
	}

	ch := make(chan models.MLocation, 1)
	go func() {
		if s.fixDelay > 0 {
			time.Sleep(s.fixDelay)
		}
		if s.closeEarly {
			close(ch)
			return
		}
		if s.fix != nil {
			ch <- *s.fix
		}
	}()
	return ch, nil
}

func (s *stubProvider) Stop() {
	s.mu.Lock()
	s.stops++
	s.mu.Unlock()
}

func (s *stubProvider) counts() (starts, stops int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts, s.stops
}

// -----------------------------------------------------------------------------

func fetcherConfig() *models.MConfig {
	return &models.MConfig{
		LogLevel: "error",
		Location: models.MLocationConfig{
			TimeoutSeconds: 10,
			Provider: models.MLocationProviderConfig{
				Authorization:    "granted_foreground",
				Latitude:         45.4642,
				Longitude:        9.19,
				AccuracyM:        12,
				FixDelayMs:       10,
				UpdateIntervalMs: 50,
			},
		},
	}
}

func TestRequestOnceReturnsFirstFix(t *testing.T) {
	fix := models.MLocation{Latitude: 45.4642, Longitude: 9.19, Accuracy: 10, Timestamp: time.Now()}
	stub := &stubProvider{auth: models.AuthGrantedForeground, fix: &fix}

	f := NewLocationFetcher(fetcherConfig(), stub)

	got, err := f.RequestOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Latitude != fix.Latitude || got.Longitude != fix.Longitude {
		t.Fatalf("expected fix %+v, got %+v", fix, got)
	}

	starts, stops := stub.counts()
	if starts != 1 || stops != 1 {
		t.Fatalf("expected one start and one stop, got %d/%d", starts, stops)
	}
}

func TestRequestOnceAuthorizationDenied(t *testing.T) {
	for _, auth := range []models.MAuthStatus{models.AuthDenied, models.AuthUndetermined, models.AuthUnknown} {
		t.Run(string(auth), func(t *testing.T) {
			stub := &stubProvider{auth: auth}
			f := NewLocationFetcher(fetcherConfig(), stub)

			_, err := f.RequestOnce(context.Background())
			if err == nil {
				t.Fatal("expected an error")
			}
			if kind := helpers.KindOf(err); kind != helpers.KindAuthorizationDenied {
				t.Fatalf("expected authorization_denied, got %s", kind)
			}

			// Denial must not touch the stream at all
			starts, _ := stub.counts()
			if starts != 0 {
				t.Fatalf("stream should not start on denial, started %d times", starts)
			}
		})
	}
}

func TestRequestOnceTimeout(t *testing.T) {
	fix := models.MLocation{Latitude: 1, Longitude: 2}
	stub := &stubProvider{auth: models.AuthGrantedForeground, fix: &fix, fixDelay: time.Second}

	f := NewLocationFetcher(fetcherConfig(), stub)
	f.timeout = 50 * time.Millisecond

	_, err := f.RequestOnce(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if kind := helpers.KindOf(err); kind != helpers.KindLocationTimeout {
		t.Fatalf("expected location_timeout, got %s", kind)
	}

	_, stops := stub.counts()
	if stops != 1 {
		t.Fatalf("stream must be stopped on timeout, got %d stops", stops)
	}
}

func TestRequestOnceStartFailure(t *testing.T) {
	stub := &stubProvider{auth: models.AuthGrantedForeground, startErr: fmt.Errorf("radio off")}
	f := NewLocationFetcher(fetcherConfig(), stub)

	_, err := f.RequestOnce(context.Background())
	if kind := helpers.KindOf(err); kind != helpers.KindLocationUnavailable {
		t.Fatalf("expected location_unavailable, got %s", kind)
	}
}

func TestRequestOnceStreamEndsEarly(t *testing.T) {
	stub := &stubProvider{auth: models.AuthGrantedForeground, closeEarly: true}
	f := NewLocationFetcher(fetcherConfig(), stub)

	_, err := f.RequestOnce(context.Background())
	if kind := helpers.KindOf(err); kind != helpers.KindLocationUnknown {
		t.Fatalf("expected location_unknown, got %s", kind)
	}

	_, stops := stub.counts()
	if stops != 1 {
		t.Fatalf("stream must be stopped when it ends early, got %d stops", stops)
	}
}

func TestRequestOnceRejectsOverlap(t *testing.T) {
	fix := models.MLocation{Latitude: 1, Longitude: 2}
	stub := &stubProvider{auth: models.AuthGrantedForeground, fix: &fix, fixDelay: 200 * time.Millisecond}

	f := NewLocationFetcher(fetcherConfig(), stub)

	done := make(chan error, 1)
	go func() {
		_, err := f.RequestOnce(context.Background())
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)

	if _, err := f.RequestOnce(context.Background()); !errors.Is(err, ErrAlreadyPending) {
		t.Fatalf("expected ErrAlreadyPending, got %v", err)
	}

	if err := <-done; err != nil {
		t.Fatalf("first request should still succeed: %v", err)
	}

	// The slot frees up once the first request resolves
	if _, err := f.RequestOnce(context.Background()); err != nil {
		t.Fatalf("follow-up request should succeed: %v", err)
	}
}

func TestRequestOnceCancellation(t *testing.T) {
	fix := models.MLocation{Latitude: 1, Longitude: 2}
	stub := &stubProvider{auth: models.AuthGrantedForeground, fix: &fix, fixDelay: time.Second}

	f := NewLocationFetcher(fetcherConfig(), stub)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	_, err := f.RequestOnce(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	_, stops := stub.counts()
	if stops != 1 {
		t.Fatalf("stream must be stopped on cancellation, got %d stops", stops)
	}
}
