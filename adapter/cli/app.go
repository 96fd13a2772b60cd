package cli

import (
	"errors"
	"time"

	callServices "github.com/felixgeelhaar/calltracker/internal/calls/application/services"
	callsDomain "github.com/felixgeelhaar/calltracker/internal/calls/domain"
	schedulerServices "github.com/felixgeelhaar/calltracker/internal/scheduling/application/services"
	"github.com/felixgeelhaar/calltracker/pkg/observability"
)

// ErrNoDatabase is returned by commands that need the wired application.
var ErrNoDatabase = errors.New("this command requires a database connection")

// App holds the CLI application dependencies.
type App struct {
	Engine    *schedulerServices.SchedulingEngine
	Detector  *schedulerServices.ConflictDetector
	Importer  *callServices.Importer
	Employees callsDomain.EmployeeRepository
	Calls     callsDomain.CallRepository
	Health    *observability.HealthRegistry

	// SuggestionRetention is the default age for suggestion cleanup.
	SuggestionRetention time.Duration
	// Location is used to parse and print times.
	Location *time.Location
}

// NewApp creates a new CLI application.
func NewApp(
	engine *schedulerServices.SchedulingEngine,
	detector *schedulerServices.ConflictDetector,
	importer *callServices.Importer,
	employees callsDomain.EmployeeRepository,
	calls callsDomain.CallRepository,
) *App {
	return &App{
		Engine:              engine,
		Detector:            detector,
		Importer:            importer,
		Employees:           employees,
		Calls:               calls,
		SuggestionRetention: 30 * 24 * time.Hour,
		Location:            time.Local,
	}
}

// SetSuggestionRetention updates the default cleanup age.
func (a *App) SetSuggestionRetention(d time.Duration) {
	a.SuggestionRetention = d
}

// SetLocation updates the display time zone.
func (a *App) SetLocation(loc *time.Location) {
	if loc != nil {
		a.Location = loc
	}
}

// SetHealth attaches the dependency health registry.
func (a *App) SetHealth(registry *observability.HealthRegistry) {
	a.Health = registry
}

// FormatTime renders t in the app's time zone.
func (a *App) FormatTime(t time.Time) string {
	return t.In(a.Location).Format("Mon 2006-01-02 15:04")
}

// ParseTime accepts RFC3339 or "2006-01-02 15:04" in the app's time zone.
func (a *App) ParseTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02 15:04", value, a.Location)
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}

// RequireApp returns the application or ErrNoDatabase.
func RequireApp() (*App, error) {
	if app == nil || app.Engine == nil {
		return nil, ErrNoDatabase
	}
	return app, nil
}
