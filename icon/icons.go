package icon

// Icon identifies a symbol in the registry.
type Icon int

const (
	Success Icon = iota
	Fail
	Progress
	Warn
	Media
	Filtered
	Resolver
	Sniff
)

var icons = map[Icon]*iconDef{
	Success: {
		emoji:   "✅",
		nerd:    "",
		plain:   "✓",
		kaomoji: "(ᵔ◡ᵔ)",
		squares: "▣",
	},
	Fail: {
		emoji:   "❌",
		nerd:    "",
		plain:   "✗",
		kaomoji: "(╥﹏╥)",
		squares: "□",
	},
	Progress: {
		emoji:   "⏳",
		nerd:    "",
		plain:   "…",
		kaomoji: "(◕‿◕)",
		squares: "◫",
	},
	Warn: {
		emoji:   "⚠️",
		nerd:    "",
		plain:   "!",
		kaomoji: "(・_・;)",
		squares: "◬",
	},
	Media: {
		emoji:   "🎬",
		nerd:    "",
		plain:   "▶",
		kaomoji: "(☞ﾟ∀ﾟ)☞",
		squares: "▶",
	},
	Filtered: {
		emoji:   "🚫",
		nerd:    "",
		plain:   "⊘",
		kaomoji: "(ノಠ益ಠ)ノ",
		squares: "▨",
	},
	Resolver: {
		emoji:   "🔗",
		nerd:    "",
		plain:   "→",
		kaomoji: "(⌐■_■)",
		squares: "▤",
	},
	Sniff: {
		emoji:   "🔎",
		nerd:    "",
		plain:   "~",
		kaomoji: "(¬‿¬)",
		squares: "▥",
	},
}
