package loganalysis

import "regexp"

// categoryPattern ties a category to its recognizers and a remediation hint.
// Slice order is the classification order; do not reorder casually, it
// changes which bucket ambiguous lines land in.
type categoryPattern struct {
	category Category
	res      []*regexp.Regexp
	hint     string
}

var categoryPatterns = []categoryPattern{
	{
		category: CategorySyntax,
		res: []*regexp.Regexp{
			regexp.MustCompile(`Undefined control sequence`),
			regexp.MustCompile(`! Missing [{}$&] inserted`),
			regexp.MustCompile(`! Missing \\`),
			regexp.MustCompile(`Runaway argument`),
			regexp.MustCompile(`! Too many }`),
			regexp.MustCompile(`! Extra [}$&]`),
			regexp.MustCompile(`Paragraph ended before`),
			regexp.MustCompile(`! Emergency stop`),
			regexp.MustCompile(`\\begin\{.*\} ended by \\end\{.*\}`),
		},
		hint: "check the reported line for a typo in a command or unbalanced braces/environments",
	},
	{
		category: CategoryMissingPackage,
		res: []*regexp.Regexp{
			regexp.MustCompile("`[^']*\\.sty' not found"),
			regexp.MustCompile("LaTeX Error: File `[^']*' not found"),
			regexp.MustCompile(`! I can't find file`),
		},
		hint: "install the package or run texbuilder build to generate a placeholder",
	},
	{
		category: CategoryReference,
		res: []*regexp.Regexp{
			regexp.MustCompile("Reference `[^']*' undefined"),
			regexp.MustCompile("Citation `[^']*' undefined"),
			regexp.MustCompile(`There were undefined references`),
			regexp.MustCompile(`Label\(s\) may have changed`),
			regexp.MustCompile(`multiply defined`),
		},
		hint: "rerun the compiler, or fix the \\label/\\ref pair",
	},
	{
		category: CategoryIncompatiblePackages,
		res: []*regexp.Regexp{
			regexp.MustCompile(`Option clash for package`),
			regexp.MustCompile(`Command \\\w+ already defined`),
			regexp.MustCompile(`not compatible with`),
		},
		hint: "reconcile package load order or duplicated options in the preamble",
	},
	{
		category: CategoryEncoding,
		res: []*regexp.Regexp{
			regexp.MustCompile(`inputenc Error`),
			regexp.MustCompile(`Invalid UTF-8 byte`),
			regexp.MustCompile(`Unicode character .* not set up`),
		},
		hint: "check the source file encoding and the inputenc configuration",
	},
	{
		category: CategoryFonts,
		res: []*regexp.Regexp{
			regexp.MustCompile(`LaTeX Font Warning`),
			regexp.MustCompile(`Font shape .* undefined`),
			regexp.MustCompile(`Some font shapes were not available`),
			regexp.MustCompile(`Missing character: There is no`),
		},
		hint: "the requested font shape is substituted; load the proper font package if it matters",
	},
}

// Severity recognizers, tested independently of category.
var (
	criticalRes = []*regexp.Regexp{
		regexp.MustCompile(`Emergency stop`),
		regexp.MustCompile(`Fatal error occurred`),
		regexp.MustCompile(`==> Fatal error`),
		regexp.MustCompile(`TeX capacity exceeded`),
		regexp.MustCompile(`job aborted`),
	}
	highRes = []*regexp.Regexp{
		regexp.MustCompile(`Undefined control sequence`),
		regexp.MustCompile(`' not found`),
		regexp.MustCompile(`! I can't find file`),
	}
	lowRes = []*regexp.Regexp{
		regexp.MustCompile(`(Overfull|Underfull) \\[hv]box`),
		regexp.MustCompile(`LaTeX Font Warning`),
		regexp.MustCompile(`Font shape`),
		regexp.MustCompile(`Missing character: There is no`),
	}
	mediumRes = []*regexp.Regexp{
		regexp.MustCompile(`Warning`),
		regexp.MustCompile(`undefined references`),
	}
)

// Location markers: file-line-error prefixes and TeX's own l.<N> context.
var (
	fileLineRe = regexp.MustCompile(`^(\./)?([^:\s][^:]*\.(?:tex|sty|cls)):(\d+):`)
	texLineRe  = regexp.MustCompile(`^l\.(\d+)`)
)

// diagnostic recognizers decide whether a raw line is worth classifying at
// all (error banner, warning, or box complaint).
var diagnosticRes = []*regexp.Regexp{
	regexp.MustCompile(`^!`),
	regexp.MustCompile(`^.*:\d+:`),
	regexp.MustCompile(`Error`),
	regexp.MustCompile(`Warning`),
	regexp.MustCompile(`(Overfull|Underfull) \\[hv]box`),
	regexp.MustCompile(`Runaway argument`),
	regexp.MustCompile(`Missing character: There is no`),
	regexp.MustCompile(`There were undefined references`),
}

func anyMatch(res []*regexp.Regexp, line string) bool {
	for _, re := range res {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
