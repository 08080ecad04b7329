package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/lexiq/internal/core/domain"
	"github.com/custodia-labs/lexiq/internal/core/services"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure analysis defaults, engine tuning, the cache backend and
the analyzer.

Settings are stored in ~/.lexiq/config.toml.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a single setting",
	Long: `Set a single setting by its configuration key.

Pass "-" as the value of an API key to type it without echo.
Run 'lexiq settings keys' to list every key.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	RunE:  runSettingsKeys,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the chat model the LLM analyzer prompts.`,
	RunE:  runSettingsLLM,
}

var settingsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that the settings are usable",
	RunE:  runSettingsValidate,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsValidateCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	out := cmd.OutOrStdout()
	writeSettings(out, describeSettings(settings), stylesFor(out))
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

// settingRow is one key as accepted by "settings set". note is shown
// dimmed after the value.
type settingRow struct {
	key, value, note string
}

type settingSection struct {
	name string
	rows []settingRow
}

// describeSettings lists the effective settings grouped by key prefix.
// Secrets are masked and sections for the unused analyzer are omitted.
func describeSettings(s *domain.AppSettings) []settingSection {
	e := s.Engine
	w := e.Weights
	num := strconv.Itoa
	dec := func(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

	rate := settingRow{key: services.KeyRequestsPerSecond, value: dec(e.RequestsPerSecond)}
	if e.RequestsPerSecond <= 0 {
		rate.note = "unlimited"
	}
	entries := settingRow{key: services.KeyCacheMaxEntries, value: num(s.Cache.MaxEntries)}
	if s.Cache.MaxEntries <= 0 {
		entries.note = "unbounded"
	}

	sections := []settingSection{
		{"analysis", []settingRow{
			{key: services.KeyLanguage, value: s.Analysis.Language},
			{key: services.KeyDomain, value: s.Analysis.Domain},
			{key: services.KeyCheckGrammar, value: strconv.FormatBool(s.Analysis.Flags.Grammar)},
			{key: services.KeyCheckSpelling, value: strconv.FormatBool(s.Analysis.Flags.Spelling)},
		}},
		{"engine", []settingRow{
			{key: services.KeySingleCallLimit, value: num(e.SingleCallLimit), note: "runes"},
			{key: services.KeyMaxDocumentLength, value: num(e.MaxDocumentLength), note: "runes"},
			{key: services.KeyConcurrency, value: num(e.Concurrency)},
			rate,
		}},
		{"similarity", []settingRow{
			{key: services.KeySampleThreshold, value: num(e.SampleThreshold), note: "runes"},
			{key: services.KeySampleSize, value: num(e.SampleSize), note: "runes"},
		}},
		{"policy", []settingRow{
			{key: services.KeyFullThreshold, value: dec(e.FullThresholdPercent)},
			{key: services.KeyMinorEditPercent, value: dec(e.MinorEditPercent)},
			{key: services.KeyMinorEditSegments, value: num(e.MinorEditMaxSegments)},
			{key: services.KeyMinorEditRunes, value: num(e.MinorEditMaxRunes)},
		}},
		{"quality", []settingRow{
			{key: services.KeyWeightValid, value: dec(w.Valid)},
			{key: services.KeyWeightReview, value: dec(w.Review)},
			{key: services.KeyWeightCritical, value: dec(w.Critical)},
			{key: services.KeyWeightSpelling, value: dec(w.Spelling)},
			{key: services.KeyWeightGrammar, value: dec(w.Grammar)},
		}},
	}

	cache := settingSection{name: "cache", rows: []settingRow{
		{key: services.KeyCacheBackend, value: string(s.Cache.Backend), note: s.Cache.Backend.Description()},
		entries,
	}}
	if s.Cache.Backend == domain.CacheRedis {
		cache.rows = append(cache.rows, settingRow{key: services.KeyCacheRedisAddr, value: s.Cache.RedisAddr})
	}
	sections = append(sections, cache, settingSection{"analyzer", []settingRow{
		{key: services.KeyAnalyzerBackend, value: string(s.Analyzer)},
	}})

	if s.Analyzer == domain.AnalyzerConsistency {
		return sections
	}
	if s.Analyzer == domain.AnalyzerRemote {
		return append(sections, settingSection{"remote", []settingRow{
			{key: services.KeyRemoteURL, value: s.Remote.URL},
			secretRow(services.KeyRemoteAPIKey, s.Remote.APIKey),
		}})
	}

	status := "configured"
	if !s.LLM.IsConfigured() {
		status = "not configured"
	}
	llm := settingSection{name: "llm", rows: []settingRow{
		{key: services.KeyLLMProvider, value: string(s.LLM.Provider), note: status},
		{key: services.KeyLLMModel, value: s.LLM.Model},
	}}
	if s.LLM.Provider.IsLocal() {
		llm.rows = append(llm.rows, settingRow{key: services.KeyLLMBaseURL, value: s.LLM.BaseURL})
	}
	if s.LLM.Provider.RequiresAPIKey() {
		llm.rows = append(llm.rows, secretRow(services.KeyLLMAPIKey, s.LLM.APIKey))
	}
	return append(sections, llm)
}

func secretRow(key, secret string) settingRow {
	if secret == "" {
		return settingRow{key: key, note: "not set"}
	}
	return settingRow{key: key, value: maskAPIKey(secret)}
}

// writeSettings prints sections TOML style with the keys in one column.
func writeSettings(w io.Writer, sections []settingSection, st reportStyles) {
	width := 0
	for _, sec := range sections {
		for _, r := range sec.rows {
			width = max(width, len(r.key))
		}
	}

	for i, sec := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, st.title.Render("["+sec.name+"]"))
		for _, r := range sec.rows {
			line := "  " + st.label.Render(fmt.Sprintf("%-*s", width, r.key)) + "  " + r.value
			if r.note != "" {
				line += "  " + st.muted.Render("("+r.note+")")
			}
			fmt.Fprintln(w, strings.TrimRight(line, " "))
		}
	}
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if value == "-" && strings.HasSuffix(key, "api_key") {
		cmd.Print("Enter API key: ")
		value = readPassword()
		cmd.Println()
	}

	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	if strings.HasSuffix(key, "api_key") {
		value = maskAPIKey(value)
	}
	cmd.Printf("Set %s = %s\n", key, value)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	for _, key := range services.SettingKeys() {
		cmd.Println(key)
	}
	return nil
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureLLMProvider(cmd, reader)
}

func runSettingsValidate(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Validate(); err != nil {
		return err
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if settings.Analyzer == domain.AnalyzerLLM {
		cmd.Print("Pinging LLM provider... ")
		if err := settingsService.ValidateLLMConfig(); err != nil {
			cmd.Println("FAILED")
			return fmt.Errorf("LLM configuration validation failed: %w", err)
		}
		cmd.Println("OK")
	}

	cmd.Println("Configuration is valid.")
	return nil
}

func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select LLM Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	defaults := domain.DefaultLLMModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	// Get API key if needed
	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword()
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetLLMProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
