package mailbox

import (
	"time"

	"github.com/vinayprograms/deaddrop/logging"
	"github.com/vinayprograms/deaddrop/store"
	"github.com/vinayprograms/deaddrop/telemetry"
)

// Sweeper reclaims protocol objects that have outlived twice the task
// expiration window. Doubling the window gives a pending task one full
// extra window to resolve before its artifacts disappear.
type Sweeper struct {
	store      store.Store
	expiration time.Duration
	log        *logging.Logger
	telemetry  telemetry.Exporter
}

// NewSweeper creates a sweeper over st. log may be nil.
func NewSweeper(st store.Store, expiration time.Duration, log *logging.Logger) *Sweeper {
	if log == nil {
		log = logging.Nop()
	}
	return &Sweeper{
		store:      st,
		expiration: expiration,
		log:        log.WithComponent("sweeper"),
		telemetry:  telemetry.NewNoopExporter(),
	}
}

// WithTelemetry attaches an exporter that receives one event per swept
// object. A nil exporter leaves the current one in place.
func (s *Sweeper) WithTelemetry(exp telemetry.Exporter) *Sweeper {
	if exp != nil {
		s.telemetry = exp
	}
	return s
}

// Sweep deletes expired objects and returns the surviving names, so the
// caller continues with the same listing instead of listing twice.
//
// Only decodable names are candidates; anything else in the store belongs
// to someone else and is never touched. A failed deletion is logged and
// the object stays in the surviving set, to be retried on a later sweep.
func (s *Sweeper) Sweep(names []string, now time.Time) []string {
	surviving := make([]string, 0, len(names))
	for _, raw := range names {
		parsed, ok := ParseName(raw)
		if !ok {
			surviving = append(surviving, raw)
			continue
		}

		age := now.Sub(parsed.Timestamp)
		if age <= 2*s.expiration {
			surviving = append(surviving, raw)
			continue
		}

		if err := s.store.Delete(raw); err != nil {
			s.log.Err("sweep delete failed", err, map[string]interface{}{
				"object": raw,
			})
			surviving = append(surviving, raw)
			continue
		}
		s.log.ObjectSwept(raw, age)
		s.telemetry.LogEvent(telemetry.EventObjectSwept, map[string]interface{}{
			"object": raw,
			"age":    age.String(),
		})
	}
	return surviving
}
