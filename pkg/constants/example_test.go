package constants_test

import (
	"fmt"
	"strings"

	"github.com/periodo/reconciler/pkg/constants"
)

// Example_matchFields shows the fields appended to every resolved row.
func Example_matchFields() {
	fmt.Println(strings.Join(constants.MatchFields, ","))
	// Output:
	// match_num,match_name,match_id,candidates_count,match_fallback_id,match_fallback_name
}

// Example_serviceDefaults shows where the client points when nothing is configured.
func Example_serviceDefaults() {
	fmt.Printf("%s://%s/ via %s in %s mode\n",
		constants.DefaultProtocol, constants.DefaultHost,
		constants.DefaultMethod, constants.DefaultMode)
	// Output:
	// http://localhost:8142/ via POST in batch mode
}
