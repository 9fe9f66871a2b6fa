package domain

import "strings"

var kolKeywords = []string{
	"creator",
	"influencer",
	"kol",
	"campaign",
	"collab",
	"sponsor",
	"brand deal",
	"followers",
	"engagement",
	"audience",
	"niche",
	"gaming",
	"beauty",
	"fashion",
	"fitness",
	"food",
	"travel",
	"lifestyle",
	"parenting",
	"finance",
	"music",
	"instagram",
	"tiktok",
	"youtube",
	"twitch",
}

type QueryClass struct {
	KOLSpecific bool
}

// ClassifyQuery flags text mentioning any creator/campaign keyword, case-insensitively.
// Text without a match, including the empty string, is a general question.
func ClassifyQuery(text string) QueryClass {
	lowered := strings.ToLower(text)
	for _, keyword := range kolKeywords {
		if strings.Contains(lowered, keyword) {
			return QueryClass{KOLSpecific: true}
		}
	}
	return QueryClass{}
}

// EstimateCost is the nominal credit cost of text, for display only.
func EstimateCost(text string) float64 {
	if ClassifyQuery(text).KOLSpecific {
		return 1
	}
	return 1.0 / GeneralQuestionsPerCredit
}
