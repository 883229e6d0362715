/*
Package config manages rule-file parsing and validation for overwrite.

	             +-------------+
	             |   Config    |
	             |  (Rules)    |
	             +------+------+
	                    |
	    +---------+-----+-----+---------+
	    |         |           |         |
	+---+---+ +---+---+   +---+---+ +---+---+
	| YAML  | | JSON  |   |  HCL  | | TOML  |
	| Parser| | Parser|   | Parser| | Parser|
	+-------+ +-------+   +-------+ +-------+

🎯 Purpose:
- Loads substitution rules from a file
- Validates patterns, globs, and backup settings
- Bridges raw settings to backup.Policy and textenc.Codec
- Supports multiple config formats behind one model

🔄 Flow:
1. Reads the rule file from disk
2. Picks a parser by filename
3. Parses format-specific syntax into the shared model
4. Validates the model once, centrally

⚡ Key Responsibilities:
- Rule modeling (pattern, template, scope)
- Strict parsing: unknown keys are errors in every format
- Contradiction checks for backup settings
- Scoping rules to targets with doublestar globs

🤝 Interfaces:
- Parser: format-specific parsing, self-registered in init()
- Config: the shared, validated model

📝 Design Philosophy:
The config package is the source of truth for what substitutions run
where. It:
- Keeps one model for all formats
- Rejects unknown keys early instead of silently ignoring typos
- Validates centrally in Load, so parsers stay purely syntactic
- Converts to the session's types at the edge, not throughout

🔍 Example:

	cfg, err := config.Load(ctx, ".overwrite.yaml")
	if err != nil {
		return err
	}

	rules, err := cfg.RulesFor("notes/draft.txt")
	if err != nil {
		return err
	}
	for _, rule := range rules {
		re, err := rule.Compile()
		if err != nil {
			return err
		}
		// hand re and rule.Transform() to an overwrite.Session
		_ = re
	}
*/
package config
