package rules

// Defaults returns the compiled-in rule set. Load applies YAML overrides
// on top of this.
func Defaults() *Set {
	set := &Set{
		TriggerPhrase: "khul ja sim sim",
		DomainKeywords: []string{
			"law", "legal", "act", "court", "judge", "advocate", "lawyer",
			"bail", "arrest", "police", "fir", "crime", "criminal", "offence",
			"offense", "punishment", "penalty", "fine", "imprisonment",
			"rights", "constitution", "fundamental", "writ", "petition",
			"divorce", "marriage", "custody", "alimony", "maintenance",
			"property", "inheritance", "will", "succession", "tenant",
			"landlord", "rent", "eviction", "contract", "agreement",
			"breach", "damages", "liability", "negligence", "sue", "lawsuit",
			"appeal", "tribunal", "notice", "summons", "warrant", "evidence",
			"witness", "testimony", "affidavit", "cheque", "bounce", "fraud",
			"cheating", "theft", "assault", "defamation", "harassment",
			"dowry", "cybercrime", "consumer", "complaint", "accident",
			"compensation", "insurance claim", "tax", "gst", "registration",
		},
		Abbreviations: []string{
			"ipc", "crpc", "cpc", "iea", "hma", "nia", "mva", "posh", "pocso",
			"ni act", "it act", "rti",
		},
		QuestionForms: []string{
			`\bcan\s+(i|we|they|he|she|someone)\s+(sue|file|appeal|claim|divorce|evict)\b`,
			`\bis\s+it\s+(illegal|legal|punishable|an?\s+offen[cs]e)\b`,
			`\bwhat\s+(is|are)\s+(the\s+)?(punishment|penalty|procedure|rights?)\b`,
			`\bhow\s+(do|can)\s+(i|we)\s+(file|register|appeal|claim)\b`,
			`\bwhat\s+happens\s+if\b`,
		},
		ExpertTable: map[string]string{
			"cooking":     "chef or culinary expert",
			"recipe":      "chef or culinary expert",
			"food":        "chef or culinary expert",
			"medicine":    "doctor or medical professional",
			"doctor":      "doctor or medical professional",
			"health":      "doctor or medical professional",
			"symptom":     "doctor or medical professional",
			"programming": "software engineer",
			"coding":      "software engineer",
			"software":    "software engineer",
			"investment":  "financial advisor",
			"stock":       "financial advisor",
			"trading":     "financial advisor",
			"travel":      "travel consultant",
			"flight":      "travel consultant",
			"hotel":       "travel consultant",
			"math":        "mathematics tutor",
			"physics":     "science educator",
			"chemistry":   "science educator",
			"sports":      "sports analyst",
			"cricket":     "sports analyst",
			"movie":       "film critic",
			"music":       "music expert",
		},
		DefaultExpert: "an expert in that field",
	}
	set.expertOrder = sortedKeys(set.ExpertTable)
	if err := set.compile(); err != nil {
		panic(err)
	}
	return set
}
