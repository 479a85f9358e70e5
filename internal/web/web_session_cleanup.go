package web

import (
	"context"
	"time"
)

// sessionCleanupInterval is how often expired sessions and flash values are purged
const sessionCleanupInterval = 15 * time.Minute

// sweeper is implemented by flash stores that expire entries lazily
type sweeper interface {
	Sweep() int
}

// StartSessionCleanup starts a background goroutine to clean up expired sessions until ctx is done
func (s *WebServer) StartSessionCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(sessionCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupOnce()
			}
		}
	}()
	s.Logger.Info("started session cleanup background task", "interval", sessionCleanupInterval)
}

func (s *WebServer) cleanupOnce() {
	n, err := s.DB.CleanupExpiredSessions()
	if err != nil {
		s.Logger.Error("error cleaning up expired sessions", "err", err)
	} else if n > 0 {
		s.Logger.Info("cleaned up expired sessions", "count", n)
	}
	if sw, ok := s.Flash.(sweeper); ok {
		if dropped := sw.Sweep(); dropped > 0 {
			s.Logger.Debug("dropped expired flash values", "count", dropped)
		}
	}
}
