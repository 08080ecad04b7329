// Package file stores lexiq configuration under ~/.lexiq.
//
// ConfigStore keeps settings in config.toml, nested into tables by their
// dotted keys, with LEXIQ_* environment variables taking precedence.
// PromptStore serves the analyzer prompts as editable text files.
package file
