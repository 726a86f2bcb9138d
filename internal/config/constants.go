package config

// Application constants
const (
	AppName    = "qcsuite"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces environment overrides, e.g. QC_DOMAINS
	EnvPrefix = "QC"

	// DefaultConfigFile is read from the working directory when no path is given
	DefaultConfigFile = "config.yaml"
)

// Logical path keys available in a domain path map
const (
	KeyRoot          = "root"
	KeyRawData       = "raw_data"
	KeyMergedData    = "merged_data"
	KeyProcessedData = "processed_data"
	KeyOldData       = "old_data"
	KeyDictionary    = "dictionary"
	KeyQCOutput      = "qc_output"
	KeyQCLogs        = "qc_logs"
)

// Logical path keys available in the global path map
const (
	KeyRHQInputs  = "rhq_inputs"
	KeyGlobalData = "global_data"
	KeyInput      = "input"
	KeyOutput     = "output"
)

// DomainScopedInputs are input keys that only make sense per domain
var DomainScopedInputs = []string{KeyRawData, KeyMergedData, KeyProcessedData, KeyOldData}

// GlobalInputs are input keys that resolve against the global path map
var GlobalInputs = []string{KeyRHQInputs, KeyGlobalData}

var defaultDomainLayout = map[string]string{
	KeyRawData:       "raw_data",
	KeyMergedData:    "merged_data",
	KeyProcessedData: "processed_data",
	KeyOldData:       "old_data",
	KeyDictionary:    "dictionary",
	KeyQCOutput:      "qc_output",
	KeyQCLogs:        "qc_logs",
}

var defaultGlobalPaths = map[string]string{
	KeyInput:      "input",
	KeyOutput:     "output",
	KeyRHQInputs:  "input/rhq",
	KeyGlobalData: "global_data",
	KeyQCOutput:   "output/qc",
	KeyQCLogs:     "output/logs",
}

// IsDomainScopedInput reports whether key names a per-domain input
func IsDomainScopedInput(key string) bool {
	return contains(DomainScopedInputs, key)
}

// IsGlobalInput reports whether key names a global input
func IsGlobalInput(key string) bool {
	return contains(GlobalInputs, key)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
