// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"fmt"

	"github.com/danielhkuo/securevote/auth"
	"github.com/danielhkuo/securevote/models"
)

// SeedCreatorID owns the demo polls.
const SeedCreatorID = "securevote-demo"

var demoPolls = []models.CreatePollRequest{
	{
		Title:       "Remote Work Preference",
		Description: "What is your preferred work arrangement post-pandemic?",
		Genre:       "Economy & Work",
		Options:     []string{"Fully Remote", "Hybrid (2-3 days office)", "Mostly Office (4-5 days)", "Fully Office"},
	},
	{
		Title:       "Coffee vs Tea",
		Description: "The eternal debate: What's your preferred morning beverage?",
		Genre:       "Healthcare & Wellness",
		Options:     []string{"Coffee", "Tea", "Both equally", "Neither (other beverages)"},
	},
	{
		Title:       "Most Effective Climate Action",
		Description: "What do you believe is the most impactful action individuals can take to combat climate change?",
		Genre:       "Environment & Climate",
		Options: []string{
			"Reduce meat consumption",
			"Use public transportation",
			"Reduce energy consumption at home",
			"Plant trees and support reforestation",
			"Reduce plastic usage",
		},
	},
	{
		Title:       "Best Programming Language for Web Development",
		Description: "Which programming language do you think is the best for modern web development?",
		Genre:       "Technology & Innovation",
		Options:     []string{"JavaScript/TypeScript", "Python", "Java", "C#", "Go"},
	},
}

// SeedDemoPolls creates a small open catalog when the store has no polls.
// It returns the number of polls created.
func (s *Service) SeedDemoPolls(ctx context.Context) (int, error) {
	existing, err := s.polls.ListPolls(ctx, models.PollFilter{})
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		s.logger.Info("catalog not empty, skipping demo seed", "polls", len(existing))
		return 0, nil
	}

	seeder := auth.Identity{UserID: SeedCreatorID, Role: auth.RoleAdmin}
	for i, req := range demoPolls {
		if _, err := s.CreatePoll(ctx, seeder, req); err != nil {
			return i, fmt.Errorf("failed to seed poll %q: %w", req.Title, err)
		}
	}
	s.logger.Info("demo polls seeded", "polls", len(demoPolls))
	return len(demoPolls), nil
}
