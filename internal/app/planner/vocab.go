package planner

// GlobalStyles is the style vocabulary used for cold-start discovery and for
// the exploration term appended to every personalized plan.
var GlobalStyles = []string{
	"pop", "rock", "rap", "hip hop", "electro", "indie", "jazz",
	"classical", "metal", "rnb", "reggae", "techno", "house", "funk",
	"country", "soul", "punk", "ambient", "blues", "trap", "afrobeat",
	"kpop", "dance", "disco", "latin",
}

// MoodKeywords maps each selectable mood to its synonym vocabulary.
var MoodKeywords = map[string][]string{
	"chill": {
		"chill", "relax", "mellow", "calm", "smooth", "ambient",
		"focus", "study", "soft", "easy", "peaceful", "serene",
		"meditation", "lounge", "gentle", "deep",
	},
	"workout": {
		"workout", "gym", "training", "pump", "energy", "upbeat",
		"dance", "motivation", "cardio", "fitness", "hype", "party",
		"adrenaline", "active", "power", "run", "move", "intense", "sport",
	},
	"romantic": {
		"romantic", "love", "lover", "date", "passion", "intimate",
		"slow", "heart", "dreamy", "cozy", "cuddle", "affection",
		"sweetheart", "couple", "devotion", "romance", "tender", "desire",
	},
	"sad": {
		"sad", "melancholy", "heartbreak", "lonely", "blue", "tear",
		"emotional", "sorrow", "nostalgia", "reflection", "gloomy",
		"moody", "bittersweet", "despair", "regret", "longing",
		"melancholic", "aching",
	},
	"happy": {
		"happy", "joyful", "fun", "upbeat", "cheerful", "sunny",
		"dance", "party", "smile", "positive", "energetic", "carefree",
		"bright", "lively", "playful", "celebration", "good-vibes",
	},
	"focus": {
		"focus", "study", "concentration", "calm", "ambient",
		"instrumental", "brain", "productivity", "work", "deep",
		"minimal", "coding", "quiet", "thinking", "reading",
		"meditation", "soft", "relaxed",
	},
}

// Moods returns the known mood names.
func Moods() []string {
	return []string{"chill", "workout", "romantic", "sad", "happy", "focus"}
}

// IsKnownMood reports whether the mood has a keyword vocabulary.
func IsKnownMood(mood string) bool {
	_, ok := MoodKeywords[mood]
	return ok
}
