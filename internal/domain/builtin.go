package domain

// Tier levels used by the built-in catalogue. Formatters rewrite files, so
// linters and analyzers must see their output.
const (
	TierFormat  = 0
	TierLint    = 1
	TierAnalyze = 2
)

const (
	locationPattern = `^\S+:\d+(:\d+)?:`
	goFiles         = "*.go"
)

// BuiltinChecks returns the default check catalogue.
func BuiltinChecks() []CheckDescriptor {
	return []CheckDescriptor{
		// Formatters.
		{
			Name: "gofmt", Patterns: []string{goFiles}, Tier: TierFormat,
			Confidence: ConfidenceAlwaysSafe, Command: "gofmt",
			Args: []string{"-l", FilesPlaceholder}, FixArgs: []string{"-w", FilesPlaceholder},
			ErrorPattern: `\.go$`,
		},
		{
			Name: "goimports", Patterns: []string{goFiles}, Tier: TierFormat,
			Confidence: ConfidenceAlwaysSafe, Command: "goimports",
			Args: []string{"-l", FilesPlaceholder}, FixArgs: []string{"-w", FilesPlaceholder},
			ErrorPattern: `\.go$`,
		},
		{
			Name: "shfmt", Patterns: []string{"*.sh", "*.bash"}, Tier: TierFormat,
			Confidence: ConfidenceAlwaysSafe, Command: "shfmt",
			Args: []string{"-l", FilesPlaceholder}, FixArgs: []string{"-w", FilesPlaceholder},
			ErrorPattern: `\S`,
		},
		{
			Name: "ruff-format", Patterns: []string{"*.py", "*.pyi"}, Tier: TierFormat,
			Confidence: ConfidenceAlwaysSafe, Command: "ruff",
			Args:    []string{"format", "--check", FilesPlaceholder},
			FixArgs: []string{"format", FilesPlaceholder}, ErrorPattern: `^Would reformat`,
		},
		{
			Name: "prettier", Patterns: []string{"*.js", "*.jsx", "*.ts", "*.tsx", "*.css", "*.scss", "*.json"},
			Tier: TierFormat, Confidence: ConfidenceAlwaysSafe, Command: "prettier",
			Args: []string{"--check", FilesPlaceholder}, FixArgs: []string{"--write", FilesPlaceholder},
			ErrorPattern: `^\[warn\] \S+\.\w+$`,
		},

		// Linters.
		{
			Name: "go-vet", Patterns: []string{goFiles}, Tier: TierLint,
			Confidence: ConfidenceNeedsReview, Command: "go",
			Args: []string{"vet", "./..."}, ErrorPattern: locationPattern,
		},
		{
			Name: "golangci-lint", Patterns: []string{goFiles}, Tier: TierLint,
			Confidence: ConfidenceUsuallySafe, Command: "golangci-lint",
			Args:    []string{"run", "--output.text.path=stdout", "./..."},
			FixArgs: []string{"run", "--fix", "./..."}, ErrorPattern: locationPattern, Slow: true,
		},
		{
			Name: "staticcheck", Patterns: []string{goFiles}, Tier: TierLint,
			Confidence: ConfidenceNeedsReview, Command: "staticcheck",
			Args: []string{"./..."}, ErrorPattern: locationPattern, Slow: true,
		},
		{
			Name: "goroutinectx", Patterns: []string{goFiles}, Tier: TierLint,
			Confidence: ConfidenceNeedsReview, Command: "goroutinectx",
			Args: []string{"./..."}, ErrorPattern: locationPattern, Slow: true,
		},
		{
			Name: "shellcheck", Patterns: []string{"*.sh", "*.bash"}, Tier: TierLint,
			Confidence: ConfidenceNeedsReview, Command: "shellcheck",
			Args:         []string{"-f", "gcc", FilesPlaceholder},
			ErrorPattern: `: error: `, WarningPattern: `: (warning|note): `,
		},
		{
			Name: "ruff", Patterns: []string{"*.py", "*.pyi"}, Tier: TierLint,
			Confidence: ConfidenceUsuallySafe, Command: "ruff",
			Args:         []string{"check", "--output-format=concise", FilesPlaceholder},
			FixArgs:      []string{"check", "--fix", FilesPlaceholder},
			ErrorPattern: locationPattern,
		},
		{
			Name: "eslint", Patterns: []string{"*.js", "*.jsx", "*.ts", "*.tsx"}, Tier: TierLint,
			Confidence: ConfidenceUsuallySafe, Command: "eslint",
			Args:         []string{"--format", "unix", FilesPlaceholder},
			FixArgs:      []string{"--fix", FilesPlaceholder},
			ErrorPattern: `\[Error/`, WarningPattern: `\[Warning/`,
		},
		{
			Name: "hadolint", Patterns: []string{"Dockerfile", "*.Dockerfile", "Containerfile"}, Tier: TierLint,
			Confidence: ConfidenceNeedsReview, Command: "hadolint",
			Args: []string{FilesPlaceholder}, ErrorPattern: `\berror:`, WarningPattern: `\bwarning:`,
		},
		{
			Name: "yamllint", Patterns: []string{"*.yml", "*.yaml"}, Tier: TierLint,
			Confidence: ConfidenceNeedsReview, Command: "yamllint",
			Args:         []string{"-f", "parsable", FilesPlaceholder},
			ErrorPattern: `\[error\]`, WarningPattern: `\[warning\]`,
		},
		{
			Name: "markdownlint", Patterns: []string{"*.md"}, Tier: TierLint,
			Confidence: ConfidenceUsuallySafe, Command: "markdownlint",
			Args: []string{FilesPlaceholder}, FixArgs: []string{"--fix", FilesPlaceholder},
			ErrorPattern: locationPattern,
		},

		// Type checkers and security scanners.
		{
			Name: "mypy", Patterns: []string{"*.py", "*.pyi"}, Tier: TierAnalyze,
			Confidence: ConfidenceNeedsReview, Command: "mypy",
			Args: []string{FilesPlaceholder}, ErrorPattern: `: error: `, WarningPattern: `: note: `, Slow: true,
		},
		{
			Name: "gosec", Patterns: []string{goFiles}, Tier: TierAnalyze,
			Confidence: ConfidenceNeedsReview, Command: "gosec",
			Args: []string{"-quiet", "-fmt", "text", "./..."}, ErrorPattern: `^\[\S+:\d+\]`, Slow: true,
		},
		{
			Name: "govulncheck", Patterns: []string{goFiles, "go.mod", "go.sum"}, Tier: TierAnalyze,
			Confidence: ConfidenceNeedsReview, Command: "govulncheck",
			Args: []string{"./..."}, ErrorPattern: `^Vulnerability #`, Slow: true,
		},
		{
			Name: "bandit", Patterns: []string{"*.py"}, Tier: TierAnalyze,
			Confidence: ConfidenceNeedsReview, Command: "bandit",
			Args: []string{"-q", "-f", "custom", "--msg-template", "{abspath}:{line}: {severity}: {msg}", FilesPlaceholder},
			ErrorPattern: `: HIGH: `, WarningPattern: `: (MEDIUM|LOW): `, Slow: true,
		},
	}
}
