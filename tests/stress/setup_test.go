//go:build stress

package stress

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"github.com/offerhub/offer-portal/internal/repository"
	"github.com/offerhub/offer-portal/internal/service"
	"github.com/offerhub/offer-portal/pkg/database"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}

	err = pool.Client.Ping()
	if err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "15-alpine",
		Env: []string{
			"POSTGRES_PASSWORD=testpass",
			"POSTGRES_USER=testuser",
			"POSTGRES_DB=testdb",
			"listen_addresses='*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start resource: %s", err)
	}

	hostAndPort := resource.GetHostPort("5432/tcp")
	databaseURL := fmt.Sprintf("postgres://testuser:testpass@%s/testdb?sslmode=disable", hostAndPort)

	log.Println("Connecting to database on url:", databaseURL)

	_ = resource.Expire(180) // Tell docker to kill the container after 180 seconds

	// Retry connection
	pool.MaxWait = 120 * time.Second
	if err = pool.Retry(func() error {
		var err error
		testPool, err = pgxpool.New(context.Background(), databaseURL)
		if err != nil {
			return err
		}
		return testPool.Ping(context.Background())
	}); err != nil {
		log.Fatalf("Could not connect to database: %s", err)
	}

	// Apply the portal schema
	if err := database.ApplySchema(context.Background(), testPool); err != nil {
		log.Fatalf("Could not apply schema: %s", err)
	}

	code := m.Run()

	// Cleanup
	if err := pool.Purge(resource); err != nil {
		log.Fatalf("Could not purge resource: %s", err)
	}

	os.Exit(code)
}

func cleanupTables(t *testing.T) {
	t.Helper()
	_, err := testPool.Exec(context.Background(), "TRUNCATE TABLE redemptions, favorites, offers, vendors CASCADE")
	if err != nil {
		t.Fatalf("Failed to cleanup tables: %v", err)
	}
}

// createStressOffer inserts an approved vendor plus an active offer and
// returns the offer id. A nil quota means unlimited.
func createStressOffer(t *testing.T, name string, quota *int) string {
	t.Helper()
	ctx := context.Background()

	vendorID := "vendor_" + name
	_, err := testPool.Exec(ctx,
		`INSERT INTO vendors (id, company_name, email, password_hash, status)
		 VALUES ($1, $2, $3, '', 'approved')`,
		vendorID, name+" LLC", name+"@stress.test")
	if err != nil {
		t.Fatalf("Failed to create stress vendor: %v", err)
	}

	offerID := "offer_" + name
	_, err = testPool.Exec(ctx,
		`INSERT INTO offers (id, vendor_id, title, category_id, discount_type, discount_value,
		                     start_date, end_date, quota, status)
		 VALUES ($1, $2, $3, 'dining', 'percentage', 20, now() - interval '1 day', now() + interval '30 days', $4, 'active')`,
		offerID, vendorID, name, quota)
	if err != nil {
		t.Fatalf("Failed to create stress offer: %v", err)
	}
	return offerID
}

// newStressServices wires a redemption service against the container pool.
func newStressServices() (*service.RedemptionService, *service.TokenService) {
	offerRepo := repository.NewOfferRepository(testPool)
	redemptionRepo := repository.NewRedemptionRepository(testPool)
	tokens := service.NewTokenService("stress-test-secret", 5*time.Minute)
	return service.NewRedemptionService(testPool, offerRepo, redemptionRepo, tokens), tokens
}

// getOfferStateFromDB retrieves the quota counter and ledger count for an
// offer directly from the database.
func getOfferStateFromDB(t *testing.T, offerID string) (redemptionCount int, ledgerCount int) {
	t.Helper()
	ctx := context.Background()

	err := testPool.QueryRow(ctx,
		"SELECT redemption_count FROM offers WHERE id = $1", offerID).Scan(&redemptionCount)
	if err != nil {
		t.Fatalf("Failed to get redemption_count: %v", err)
	}

	err = testPool.QueryRow(ctx,
		"SELECT COUNT(*) FROM redemptions WHERE offer_id = $1", offerID).Scan(&ledgerCount)
	if err != nil {
		t.Fatalf("Failed to get ledger count: %v", err)
	}

	return redemptionCount, ledgerCount
}

// getUniqueRedeemers counts distinct user ids on an offer's ledger.
func getUniqueRedeemers(t *testing.T, offerID string) int {
	t.Helper()
	var n int
	err := testPool.QueryRow(context.Background(),
		"SELECT COUNT(DISTINCT user_id) FROM redemptions WHERE offer_id = $1", offerID).Scan(&n)
	if err != nil {
		t.Fatalf("Failed to count unique redeemers: %v", err)
	}
	return n
}

// logPoolStats reports connection pool pressure around a stress run.
func logPoolStats(t *testing.T, phase string) {
	t.Helper()
	stats := testPool.Stat()
	t.Logf("%s - pool stats: total=%d, acquired=%d, idle=%d",
		phase, stats.TotalConns(), stats.AcquiredConns(), stats.IdleConns())
}
