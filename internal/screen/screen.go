// Package screen renders the funnel's interface screens. Every user sees at
// most one live funnel message: rendering deletes the previous bot message
// before sending the replacement.
package screen

// Screen names. They key content overrides and asset lookups, so renaming one
// orphans stored admin edits.
const (
	Main        = "main"
	Instruction = "instruction"
	Subscribe   = "subscribe"
	Register    = "register"
	Deposit     = "deposit"
	Access      = "access"
	Platinum    = "platinum"
	Langs       = "langs"
)

// All lists every screen an admin can edit content for.
var All = []string{Main, Instruction, Subscribe, Register, Deposit, Access, Platinum, Langs}

// textKeys maps a screen to its built-in title and body translation keys.
var textKeys = map[string][2]string{
	Main:        {"main_title", "main_desc"},
	Instruction: {"instruction_title", "instruction_text"},
	Subscribe:   {"subscribe_title", "subscribe_text"},
	Register:    {"register_title", "register_text"},
	Deposit:     {"deposit_title", "deposit_text"},
	Access:      {"access_title", "access_text"},
	Platinum:    {"platinum_title", "platinum_text"},
	Langs:       {"lang_title", ""},
}
