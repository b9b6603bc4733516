package config

import "os"

// TempRefNamespace is the branch-name prefix under which the rebase engine
// creates its scratch references. Operators can redirect it (e.g. to a
// namespace their branch-protection rules exempt) via REBASEPR_TEMP_NAMESPACE.
func TempRefNamespace() string {
	if ns := os.Getenv("REBASEPR_TEMP_NAMESPACE"); ns != "" {
		return ns
	}
	return "temp/rebase"
}
