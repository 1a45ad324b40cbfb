package catalog

var appreciationSubtypes = []string{
	"Appreciation for Best Performance",
	"Appreciation for Consistent Performance",
	"Appreciation for Outstanding Performance",
}

var defaultCatalog = New([]Category{
	{
		Name:    "FSD",
		Channel: ChannelCode,
		LetterTypes: map[string][]string{
			"Appreciation Letter": appreciationSubtypes,
			"Warning Letter": {
				"Warning for Low Attendance",
				"Warning for Misconduct",
				"Warning for Incomplete Assignment",
				"Warning for Punctuality",
			},
			"Committee Letter":                  {"Committee Member", "Committee Head"},
			"Concern Letter":                    {"Concern for Low Performance"},
			"Internship Completion Certificate": {},
			"Course Completion Certificate":     {},
			"Offer Letter":                      {},
		},
	},
	{
		Name:    "BVOC",
		Channel: ChannelCode,
		LetterTypes: map[string][]string{
			"Appreciation Letter":           appreciationSubtypes,
			"Warning Letter":                {"Warning for Low Attendance", "Warning for Misconduct"},
			"Committee Letter":              {"Committee Member"},
			"Course Completion Certificate": {},
		},
	},
	{
		Name:    "HR",
		Channel: ChannelCode,
		LetterTypes: map[string][]string{
			"Offer Letter":      {},
			"Experience Letter": {},
			"Relieving Letter":  {},
			"Warning Letter":    {"Warning for Misconduct", "Warning for Punctuality"},
		},
	},
	{
		Name:    "code4bharat",
		Channel: ChannelCertificate,
		LetterTypes: map[string][]string{
			"Internship Completion Certificate": {},
			"Internship Offer Letter":           {},
			"Appreciation Letter":               {},
		},
	},
	{
		Name:    "marketing-junction",
		Channel: ChannelCertificate,
		LetterTypes: map[string][]string{
			"Internship Completion Certificate": {},
			"Internship Offer Letter":           {},
		},
	},
	{
		Name:    "IT-Nexcore",
		Channel: ChannelClient,
		LetterTypes: map[string][]string{
			"Appreciation Letter": {},
			"Experience Letter":   {},
			"Offer Letter":        {},
			"Warning Letter":      {"Warning for Misconduct"},
		},
	},
	{
		// Selectable but nothing issuable yet.
		Name:        "DM",
		Channel:     ChannelCode,
		LetterTypes: map[string][]string{},
	},
})
