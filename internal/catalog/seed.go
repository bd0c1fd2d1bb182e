package catalog

import "github.com/abhisek/nutrify/internal/assessment"

func opts(pairs ...string) []assessment.Option {
	out := make([]assessment.Option, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, assessment.Option{Value: pairs[i], Label: pairs[i+1]})
	}
	return out
}

// Questions reused across assessment types.
var (
	qAge = assessment.Question{
		ID: "age", Label: "How old are you?", Type: assessment.TypeNumber,
		Required: true, Validation: "min:0,max:120", Placeholder: "years",
	}
	qSex = assessment.Question{
		ID: "sex", Label: "Sex", Type: assessment.TypeSingleSelect, Required: true,
		Options:  opts("female", "Female", "male", "Male", "other", "Other / prefer not to say"),
		HelpText: "Used for energy expenditure estimates only.",
	}
	qHeight = assessment.Question{
		ID: "height_cm", Label: "Height", Type: assessment.TypeNumber,
		Required: true, Validation: "min:50,max:250", Placeholder: "cm",
	}
	qWeight = assessment.Question{
		ID: "weight_kg", Label: "Current weight", Type: assessment.TypeNumber,
		Required: true, Validation: "min:20,max:400", Placeholder: "kg",
	}
	qGoal = assessment.Question{
		ID: "goal", Label: "What is your main goal?", Type: assessment.TypeSingleSelect, Required: true,
		Options: opts("loss", "Lose weight", "gain", "Gain weight", "maintain", "Maintain weight"),
	}
	qActivity = assessment.Question{
		ID: "activity_level", Label: "How active are you on a typical week?", Type: assessment.TypeSingleSelect, Required: true,
		Options: opts(
			"sedentary", "Sedentary (little or no exercise)",
			"light", "Light (1-3 days/week)",
			"moderate", "Moderate (3-5 days/week)",
			"active", "Active (6-7 days/week)",
			"very_active", "Very active (physical job or twice a day)",
		),
	}
	qMeals = assessment.Question{
		ID: "meals_per_day", Label: "Meals per day", Type: assessment.TypeNumber,
		Required: true, Validation: "min:1,max:8",
	}
	qPreferences = assessment.Question{
		ID: "dietary_preferences", Label: "Dietary preferences", Type: assessment.TypeMultiSelect,
		Options: opts(
			"vegetarian", "Vegetarian",
			"vegan", "Vegan",
			"pescatarian", "Pescatarian",
			"keto", "Keto",
			"halal", "Halal",
			"kosher", "Kosher",
			"gluten_free", "Gluten free",
		),
		HelpText: "Select all that apply.",
	}
)

var seedCatalogs = []assessment.Catalog{
	{
		Type: assessment.TypeBasic,
		Phases: []assessment.Phase{
			{
				Title:       "About you",
				Description: "A few basics so your coach can size your plan.",
				Questions:   []assessment.Question{qAge, qSex, qHeight, qWeight},
			},
			{
				Title:       "Goals",
				Description: "Where do you want to be?",
				Questions: []assessment.Question{
					qGoal,
					{ID: "target_weight_kg", Label: "Target weight", Type: assessment.TypeNumber, Validation: "min:20,max:400", Placeholder: "kg"},
					{ID: "timeline_weeks", Label: "Timeline", Type: assessment.TypeNumber, Validation: "min:1,max:104", Placeholder: "weeks"},
				},
			},
			{
				Title:       "Lifestyle",
				Description: "How you live and eat today.",
				Questions: []assessment.Question{
					qActivity,
					qMeals,
					qPreferences,
					{ID: "notes", Label: "Anything else your coach should know?", Type: assessment.TypeText, Validation: "maxlen:500"},
				},
			},
		},
	},
	{
		Type: assessment.TypeDiet,
		Phases: []assessment.Phase{
			{
				Title:       "Eating habits",
				Description: "Your current routine.",
				Questions: []assessment.Question{
					qMeals,
					{ID: "snacks_per_day", Label: "Snacks per day", Type: assessment.TypeNumber, Validation: "min:0,max:10"},
					{ID: "water_liters", Label: "Water per day", Type: assessment.TypeNumber, Required: true, Validation: "min:0,max:10", Placeholder: "liters"},
				},
			},
			{
				Title:       "Preferences and restrictions",
				Description: "Foods to favour and foods to avoid.",
				Questions: []assessment.Question{
					qPreferences,
					{
						ID: "allergies", Label: "Allergies or intolerances", Type: assessment.TypeMultiSelect,
						Options: opts("nuts", "Nuts", "dairy", "Dairy", "eggs", "Eggs", "shellfish", "Shellfish", "soy", "Soy", "wheat", "Wheat"),
					},
					{ID: "disliked_foods", Label: "Foods you dislike", Type: assessment.TypeText, Placeholder: "comma separated"},
				},
			},
			{
				Title:       "Goals",
				Description: "Constraints for your meal plan.",
				Questions: []assessment.Question{
					qGoal,
					{
						ID: "budget", Label: "Weekly food budget", Type: assessment.TypeSingleSelect,
						Options: opts("low", "Low", "medium", "Medium", "high", "High"),
					},
					{
						ID: "cooking_time", Label: "Time available to cook per meal", Type: assessment.TypeSingleSelect, Required: true,
						Options: opts("under_15", "Under 15 minutes", "15_30", "15-30 minutes", "30_60", "30-60 minutes", "over_60", "Over an hour"),
					},
				},
			},
		},
	},
	{
		Type: assessment.TypeFitness,
		Phases: []assessment.Phase{
			{
				Title:       "Current activity",
				Description: "What you do today.",
				Questions: []assessment.Question{
					qActivity,
					{ID: "workouts_per_week", Label: "Workouts per week", Type: assessment.TypeNumber, Required: true, Validation: "min:0,max:14"},
					{
						ID: "training_types", Label: "Training you do", Type: assessment.TypeMultiSelect, Required: true,
						Options: opts("strength", "Strength", "cardio", "Cardio", "hiit", "HIIT", "yoga", "Yoga / mobility", "sports", "Team sports"),
					},
				},
			},
			{
				Title:       "Goals",
				Description: "What you want from training.",
				Questions: []assessment.Question{
					{
						ID: "fitness_goal", Label: "Primary fitness goal", Type: assessment.TypeSingleSelect, Required: true,
						Options: opts("strength", "Build strength", "endurance", "Improve endurance", "weight_loss", "Lose fat", "mobility", "Move better"),
					},
					{ID: "available_minutes", Label: "Minutes available per session", Type: assessment.TypeNumber, Required: true, Validation: "min:10,max:240"},
				},
			},
			{
				Title:       "Limitations",
				Description: "So the plan stays safe.",
				Questions: []assessment.Question{
					{ID: "injuries", Label: "Injuries or pain", Type: assessment.TypeText},
					{
						ID: "equipment", Label: "Equipment available", Type: assessment.TypeMultiSelect,
						Options: opts("none", "None", "dumbbells", "Dumbbells", "barbell", "Barbell", "machines", "Gym machines", "bands", "Resistance bands"),
					},
				},
			},
		},
	},
	{
		Type: assessment.TypeHealth,
		Phases: []assessment.Phase{
			{
				Title:       "Vitals",
				Description: "Baseline measurements.",
				Questions: []assessment.Question{
					qAge, qHeight, qWeight,
					{ID: "resting_heart_rate", Label: "Resting heart rate", Type: assessment.TypeNumber, Validation: "min:30,max:220", Placeholder: "bpm"},
				},
			},
			{
				Title:       "Medical history",
				Description: "Shared only with your coach.",
				Questions: []assessment.Question{
					{
						ID: "conditions", Label: "Diagnosed conditions", Type: assessment.TypeMultiSelect,
						Options: opts("diabetes", "Diabetes", "hypertension", "Hypertension", "high_cholesterol", "High cholesterol", "thyroid", "Thyroid disorder", "pcos", "PCOS", "none", "None"),
					},
					{ID: "medications", Label: "Current medications", Type: assessment.TypeText},
					{
						ID: "pregnant", Label: "Are you pregnant or breastfeeding?", Type: assessment.TypeSingleSelect, Required: true,
						Options: opts("yes", "Yes", "no", "No", "not_applicable", "Not applicable"),
					},
				},
			},
			{
				Title:       "Sleep and stress",
				Description: "Recovery matters as much as food.",
				Questions: []assessment.Question{
					{ID: "sleep_hours", Label: "Average hours of sleep", Type: assessment.TypeNumber, Required: true, Validation: "min:0,max:24"},
					{
						ID: "stress_level", Label: "Typical stress level", Type: assessment.TypeSingleSelect, Required: true,
						Options: opts("low", "Low", "moderate", "Moderate", "high", "High"),
					},
				},
			},
		},
	},
}
