// Package config provides configuration management for qcsuite.
// It loads the study configuration once at startup and exposes the domain
// path layout used by every tool.
//
// # Configuration Sources
//
// Configuration is assembled in this order:
//
//	1. Struct tag defaults
//	2. Environment variables (QC_* namespace)
//	3. config.yaml (wins over the environment for any key it sets)
//
// When config.yaml is absent the environment alone is used, e.g.
//
//	QC_DOMAINS=Clinical,Biomarkers
//	QC_ID_COLUMNS=Med_ID,Visit_ID
//	QC_LOGGING_LEVEL=debug
//
// # Path Layout
//
// Each domain resolves to a map of logical keys (raw_data, dictionary,
// qc_output, ...) under <project_root>/<domains_dir>/<domain>. Layout
// entries may be overridden in YAML and may contain a {domain} placeholder:
//
//	paths:
//	  domains_dir: domains
//	  domain_layout:
//	    dictionary: "dictionary/{domain}"
//
// # Pipelines
//
// Pipelines are declared under the pipelines key. A pipeline is either a
// list of steps or a mapping with a description and steps. A step names a
// registered tool function; a ref (or bare string) includes another
// pipeline:
//
//	pipelines:
//	  checks:
//	    description: Per-domain checks
//	    steps:
//	      - name: Dictionary Checker
//	        func: dictionary_driven_checker
//	        input_key: merged_data
//	        output_filename: value_mismatches.csv
//	        check_exists: true
//	        tags: [validation]
//	  full:
//	    - ref: checks
//	    - clean
package config
