package observability

import (
	"time"

	"github.com/rs/zerolog"
)

// Section times one operation and logs its duration at debug level when
// ended:
//
//	defer observability.StartSection(logger, "uimanager.CreateNode").End()
type Section struct {
	logger zerolog.Logger
	name   string
	start  time.Time
}

// StartSection opens a section named name.
func StartSection(logger zerolog.Logger, name string) Section {
	return Section{logger: logger, name: name, start: time.Now()}
}

// End closes the section and returns its duration.
func (s Section) End() time.Duration {
	elapsed := time.Since(s.start)
	s.logger.Debug().Str("section", s.name).Dur("elapsed", elapsed).Send()
	return elapsed
}
