package testutil

import (
	"os"
	"testing"
)

type TestEnv struct {
	MongoURI     string
	DatabaseName string
	VehiclesURL  string
	ResellersURL string
	BookingsURL  string
	MaestroURL   string
}

func NewTestEnv() *TestEnv {
	return &TestEnv{
		MongoURI:     os.Getenv("TEST_MONGO_URI"),
		DatabaseName: getEnv("TEST_DB_NAME", DefaultDatabaseName),
		VehiclesURL:  os.Getenv("TEST_VEHICLES_URL"),
		ResellersURL: os.Getenv("TEST_RESELLERS_URL"),
		BookingsURL:  os.Getenv("TEST_BOOKINGS_URL"),
		MaestroURL:   os.Getenv("TEST_MAESTRO_URL"),
	}
}

// RequireMongo skips the test unless TEST_MONGO_URI points at a replica set
// (transactions need one), then returns a helper on a clean database.
func (e *TestEnv) RequireMongo(t *testing.T) *MongoHelper {
	t.Helper()
	if e.MongoURI == "" {
		t.Skip("TEST_MONGO_URI not set, skipping Mongo integration test")
	}

	mongo := NewMongoHelper(t, e.MongoURI, e.DatabaseName)
	mongo.CleanDatabase(t)
	t.Cleanup(func() {
		mongo.CleanDatabase(t)
		mongo.Close(t)
	})
	return mongo
}

// RequireServices skips the test unless the service URLs are configured and
// waits for every service to report healthy.
func (e *TestEnv) RequireServices(t *testing.T) {
	t.Helper()
	if e.VehiclesURL == "" || e.ResellersURL == "" || e.BookingsURL == "" {
		t.Skip("TEST_VEHICLES_URL, TEST_RESELLERS_URL and TEST_BOOKINGS_URL must be set, skipping API integration test")
	}

	for _, url := range []string{e.VehiclesURL, e.ResellersURL, e.BookingsURL} {
		NewClient(url).WaitForHealthy(t, DefaultHealthCheckTimeout)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

const (
	DefaultHealthCheckTimeout = 3 * ConnectionTimeout
)
