package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/campus/internal/campus/domain"
	"github.com/aussiebroadwan/campus/internal/campus/store"
	"github.com/aussiebroadwan/campus/pkg/cryptox"
	"github.com/aussiebroadwan/campus/pkg/idx"
	"github.com/aussiebroadwan/campus/pkg/slogx"
)

// Demo admin credentials created by Seed.
const (
	SeedAdminName     = "Dr. Sarah Johnson"
	SeedAdminEmail    = "admin@college.edu"
	SeedAdminPassword = "admin123"
)

var demoEvents = []EventInput{
	{
		Title:       "Tech Innovation Summit 2025",
		Description: "Join us for an exciting summit featuring the latest innovations in technology. Industry leaders will share insights on AI, blockchain, and emerging technologies. Network with peers, attend hands-on workshops, and explore cutting-edge projects.",
		Date:        "2025-01-15",
		Time:        "9:00 AM - 5:00 PM",
		Venue:       "Main Auditorium, Building A",
		Image:       "https://images.unsplash.com/photo-1540575467063-178a50c2df87?w=800",
		MaxCapacity: 300,
	},
	{
		Title:       "AI & Machine Learning Workshop",
		Description: "Dive deep into neural networks, deep learning frameworks, and real-world applications. Bring your laptop and get ready to code. Basic Python knowledge expected. Certificate of completion provided.",
		Date:        "2025-01-20",
		Time:        "10:00 AM - 4:00 PM",
		Venue:       "Computer Lab 203",
		Image:       "https://images.unsplash.com/photo-1555255707-c07966088b7b?w=800",
		MaxCapacity: 50,
	},
	{
		Title:       "Annual Hackathon 2025",
		Description: "Build innovative solutions in 24 hours! Form teams, solve real-world problems, and compete for prizes. Mentors from top tech companies will guide you. Food and swag provided throughout the event.",
		Date:        "2025-02-01",
		Time:        "8:00 AM (Day 1) - 8:00 AM (Day 2)",
		Venue:       "Innovation Hub, Campus Center",
		Image:       "https://images.unsplash.com/photo-1504384308090-c894fdcc538d?w=800",
		MaxCapacity: 200,
	},
	{
		Title:       "Career Fair: Meet Top Employers",
		Description: "Connect with recruiters from large companies and exciting startups. Bring your resumes and dress professionally. Resume reviews, mock interviews and networking mixers run all day.",
		Date:        "2025-02-10",
		Time:        "11:00 AM - 6:00 PM",
		Venue:       "Sports Complex & Gymnasium",
		Image:       "https://images.unsplash.com/photo-1511632765486-a01980e01a18?w=800",
		MaxCapacity: 500,
	},
	{
		Title:       "Cultural Fest: Unity in Diversity",
		Description: "Celebrate the cultural diversity of our campus with performances, music, dance, food stalls from around the world, art exhibitions and an open mic. Free entry for all students.",
		Date:        "2025-02-25",
		Time:        "2:00 PM - 10:00 PM",
		Venue:       "Open Air Theatre & Food Court",
		Image:       "https://images.unsplash.com/photo-1492684223066-81342ee5ff30?w=800",
		MaxCapacity: 1000,
	},
}

type SeedService struct {
	Store store.Store
	Clock Clock
}

// Seed creates a verified demo admin and five events, but only into a store
// with no accounts. It reports whether anything was written.
func (s *SeedService) Seed(ctx context.Context) (bool, error) {
	l := slogx.FromContext(ctx)

	empty, err := s.Store.Accounts().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	if !empty {
		l.Info("store already has accounts, skipping seed")
		return false, nil
	}

	hash, err := cryptox.HashPassword(SeedAdminPassword)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	now := s.Clock.Now()
	admin := domain.Account{
		ID:           idx.NewAt(now).String(),
		Name:         SeedAdminName,
		Email:        SeedAdminEmail,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		Verified:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().CreateAccount(ctx, admin); err != nil {
			return fmt.Errorf("create admin: %w", err)
		}
		for i, in := range demoEvents {
			at := now.Add(time.Duration(i) * time.Millisecond)
			ev := domain.Event{
				ID:          idx.NewAt(at).String(),
				Title:       in.Title,
				Description: in.Description,
				Date:        in.Date,
				Time:        in.Time,
				Venue:       in.Venue,
				Image:       in.Image,
				OrganiserID: admin.ID,
				MaxCapacity: in.MaxCapacity,
				CreatedAt:   at,
				UpdatedAt:   at,
			}
			if err := tx.Events().CreateEvent(ctx, ev); err != nil {
				return fmt.Errorf("create event %q: %w", in.Title, err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	l.Info("seeded demo data",
		slog.String("admin_email", SeedAdminEmail),
		slog.Int("events", len(demoEvents)))
	return true, nil
}
