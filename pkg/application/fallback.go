package application

import (
	"github.com/felixgeelhaar/launchpath/pkg/domain/ai"
	"github.com/felixgeelhaar/launchpath/pkg/domain/planning"
)

// FallbackTasks is the starter plan used when the reasoning service
// cannot produce one: six tasks over the first three days.
func FallbackTasks() []ai.TaskDraft {
	return []ai.TaskDraft{
		{
			DayNumber: 1, SortOrder: 0,
			Title:            "Define your business mission statement",
			Description:      "Write a clear, one-sentence mission statement for your business.",
			Category:         string(planning.CategoryPlanning),
			Difficulty:       string(planning.DifficultyEasy),
			EstimatedMinutes: 20,
		},
		{
			DayNumber: 1, SortOrder: 1,
			Title:            "Research your competitors",
			Description:      "Find 3-5 competitors and note their strengths and weaknesses.",
			Category:         string(planning.CategoryPlanning),
			Difficulty:       string(planning.DifficultyMedium),
			EstimatedMinutes: 45,
		},
		{
			DayNumber: 2, SortOrder: 0,
			Title:            "Choose your business name",
			Description:      "Brainstorm 5 names, check domain availability, pick the best one.",
			Category:         string(planning.CategoryOperations),
			Difficulty:       string(planning.DifficultyMedium),
			EstimatedMinutes: 30,
		},
		{
			DayNumber: 2, SortOrder: 1,
			Title:            "Set up a business email",
			Description:      "Create a professional email address for your business.",
			Category:         string(planning.CategoryDigital),
			Difficulty:       string(planning.DifficultyEasy),
			EstimatedMinutes: 15,
		},
		{
			DayNumber: 3, SortOrder: 0,
			Title:            "Create social media accounts",
			Description:      "Set up Instagram and Facebook pages for your business.",
			Category:         string(planning.CategoryDigital),
			Difficulty:       string(planning.DifficultyEasy),
			EstimatedMinutes: 30,
		},
		{
			DayNumber: 3, SortOrder: 1,
			Title:            "Define your pricing",
			Description:      "Research market rates and set initial pricing for your top 3 products/services.",
			Category:         string(planning.CategoryFinance),
			Difficulty:       string(planning.DifficultyMedium),
			EstimatedMinutes: 45,
		},
	}
}
