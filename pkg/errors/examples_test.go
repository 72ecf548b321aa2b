package errors_test

import (
	"fmt"

	"github.com/periodo/reconciler/pkg/errors"
)

// Example demonstrates basic error creation and checking.
func Example() {
	err := errors.NewConfigurationError("start", "not present in header")

	if errors.IsConfiguration(err) {
		fmt.Println("fix the field mapping")
	}

	// Output: fix the field mapping
}

// Example_serviceError demonstrates inspecting a failed wire exchange.
func Example_serviceError() {
	var err error = fmt.Errorf("reconcile page 0: %w",
		errors.NewServiceError("http://localhost:8142/", 500, "internal error"))

	var svcErr *errors.ServiceError
	if errors.As(err, &svcErr) {
		fmt.Println("status", svcErr.StatusCode)
	}

	// Output: status 500
}
