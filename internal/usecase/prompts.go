package usecase

import (
	"fmt"
	"strings"
)

const (
	freeformInstruction = "You are CampusGreen AI, an expert sustainability assistant for college students. " +
		"Provide short, actionable, and encouraging advice for living a greener life on campus. " +
		"Keep responses under 150 words."

	dailyTipInstruction = "You are an expert sustainability coach. " +
		"Provide a single, catchy, and helpful daily eco-tip for a student."

	classifyInstruction = "Analyze this item and tell me if it should be recycled, composted, or put in landfill. " +
		"Format your response as a JSON object with 'category' (Recycle, Compost, Landfill) " +
		"and 'advice' (1-sentence explanation)."

	freeformTemperature float32 = 0.7
	dailyTipTemperature float32 = 0.9
)

// Fallback values. Each operation owns its literal.
const (
	FreeformFallback      = "I'm having trouble thinking of green tips right now. Try again soon!"
	DailyTipEmptyFallback = "Carry a reusable water bottle today!"
	DailyTipErrorFallback = "Small actions lead to big changes. Try to reduce your plastic use today!"
	EncouragementFallback = "Great thinking! Our team will review this quest soon."
)

const noChallengesYet = "none yet"

func dailyTipPrompt(completed []string) string {
	history := strings.Join(completed, ", ")
	if history == "" {
		history = noChallengesYet
	}
	return fmt.Sprintf("The student has completed these challenges: %s. "+
		"Provide a single, personalized daily eco-tip for a university student. "+
		"Keep it to one or two sentences.", history)
}

func polishPrompt(draft string) string {
	return fmt.Sprintf(`You are a social media expert for a college sustainability app called CampusGreen.
Rewrite this student's eco-win post to be extremely catchy, inspiring, and authentic for a university community.
Use 1-2 relevant emojis and maintain a friendly, encouraging tone.
Keep it concise (under 30 words).

Original text: "%s"`, draft)
}

func encouragementPrompt(suggestion string) string {
	return fmt.Sprintf(`A student suggested a new sustainability challenge for their campus app: "%s".
Give them a very short (1 sentence), enthusiastic, and encouraging response validating their idea.
Start with something like "Wow!" or "Great thinking!".`, suggestion)
}
