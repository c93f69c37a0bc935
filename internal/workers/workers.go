package workers

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"fambamAPI/services"
)

// StartReconnectNudgeWorker runs a daily sweep that nudges each user toward
// the family member they have been out of touch with the longest.
func StartReconnectNudgeWorker(db *pgxpool.Pool, connections *services.ConnectionService, notifications *services.NotificationService) {
	ticker := time.NewTicker(24 * time.Hour)

	go func() {
		for range ticker.C {
			sweepReconnectNudges(db, connections, notifications)
		}
	}()
}

func sweepReconnectNudges(db *pgxpool.Pool, connections *services.ConnectionService, notifications *services.NotificationService) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	log.Println("Starting reconnect nudge sweep...")

	rows, err := db.Query(ctx, `SELECT id, family_id FROM users`)
	if err != nil {
		log.Printf("Error querying users for nudge sweep: %v", err)
		return
	}
	defer rows.Close()

	type member struct {
		id       uuid.UUID
		familyID uuid.UUID
	}

	var members []member
	for rows.Next() {
		var m member
		if err := rows.Scan(&m.id, &m.familyID); err != nil {
			continue
		}
		members = append(members, m)
	}

	now := time.Now()
	nudged := 0

	for _, m := range members {
		stats, err := connections.StatsForUser(ctx, m.id, m.familyID, now)
		if err != nil {
			log.Printf("Nudge sweep: failed to load stats for %s: %v", m.id, err)
			continue
		}

		// Stats arrive in nudge order, so the first member needing a
		// reconnect is the strongest suggestion.
		for _, stat := range stats {
			if stat.NeedsReconnect {
				notifications.NotifyReconnectNudge(m.id, stat.Name, stat.DaysSinceLast)
				nudged++
				break
			}
		}
	}

	log.Printf("Reconnect nudge sweep complete: %d users nudged", nudged)
}
