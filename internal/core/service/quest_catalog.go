package service

import "github.com/questsupremacy/questd/internal/core/domain"

type questTemplate struct {
	Title       string
	Description string
	BaseXP      int
}

// questCatalog holds the templates daily batches are drawn from. Every
// category has at least two templates.
var questCatalog = map[domain.Category][]questTemplate{
	domain.CategoryStrength: {
		{"Warrior's Drill", "Complete 30 minutes of physical exercise", 15},
		{"Titan's Forge", "Do 50 push-ups or squats", 12},
		{"Colossus Challenge", "Beat a personal record in any exercise", 20},
	},
	domain.CategoryMentalHealth: {
		{"Ritual of Serenity", "Meditate for 10 minutes", 12},
		{"Inner Journey", "Write down three things you are grateful for", 10},
		{"Temple of Peace", "Practice deep breathing for 15 minutes", 14},
	},
	domain.CategoryIntelligence: {
		{"Quest for Knowledge", "Read 20 pages of a book", 15},
		{"Sharpened Mind", "Solve puzzles or logic games for 30 minutes", 14},
		{"Epic Study", "Study something new for 45 minutes", 18},
	},
	domain.CategoryAddictionControl: {
		{"Resist the Dark", "Avoid your vices and temptations all day", 20},
		{"Digital Fast", "Stay off social media for 4 hours", 16},
	},
	domain.CategoryNutrition: {
		{"Sacred Nourishment", "Eat healthy meals all day", 16},
		{"Spring of Life", "Drink at least 2 liters of water", 10},
		{"Alchemist's Kitchen", "Cook a balanced meal from scratch", 14},
	},
	domain.CategoryEndurance: {
		{"Long Road", "Walk or run 5 kilometers", 16},
		{"Iron Lungs", "Do 20 minutes of continuous cardio", 14},
	},
	domain.CategorySpeed: {
		{"Lightning Sprints", "Run 10 sprints of 50 meters", 14},
		{"Swift Hands", "Finish a pending chore in under 15 minutes", 10},
	},
	domain.CategoryCharisma: {
		{"Silver Tongue", "Start a conversation with someone new", 14},
		{"Bond of Allies", "Call a friend or family member", 12},
	},
	domain.CategorySkills: {
		{"Apprentice's Path", "Practice a skill you are learning for 30 minutes", 15},
		{"Master's Lesson", "Teach something you know to someone else", 18},
	},
	domain.CategorySexuality: {
		{"Vital Balance", "Spend quality time with your partner or on self-care", 12},
		{"Temple of the Body", "Sleep at least 7 hours tonight", 12},
	},
}
