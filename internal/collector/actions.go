package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/go-tangra/go-tangra-remote-admin/internal/remote"
)

var (
	// ErrInvalidProductID is returned for ids that are not a braced GUID.
	ErrInvalidProductID = errors.New("product id must be a braced GUID")
	// ErrProductNotFound is returned when no Win32_Product matches the id.
	ErrProductNotFound = errors.New("no installed product matches the id")
)

var productIDPattern = regexp.MustCompile(`^\{[0-9A-Fa-f-]+\}$`)

// ValidProductID reports whether id can be passed to Uninstall.
func ValidProductID(id string) bool {
	return productIDPattern.MatchString(id)
}

// Uninstall removes productID from host through Win32_Product. Every
// matched product that returns a non-zero code contributes one error.
func Uninstall(ctx context.Context, r remote.Runner, host, productID string) error {
	if !ValidProductID(productID) {
		return fmt.Errorf("%w: %q", ErrInvalidProductID, productID)
	}

	var (
		matched int
		errs    []error
	)
	err := streamLines(ctx, r, uninstallScript(productID), func(line []byte) {
		var res uninstallResult
		if err := json.Unmarshal(line, &res); err != nil {
			return
		}
		matched++
		if res.ReturnValue != 0 {
			errs = append(errs, fmt.Errorf("Error uninstalling '%s' from %s. Returned a value of %d", res.Name, host, res.ReturnValue))
		}
	})
	if err != nil {
		return remote.Classify(host, err)
	}
	if matched == 0 {
		return fmt.Errorf("%w: %s on %s", ErrProductNotFound, productID, host)
	}
	return errors.Join(errs...)
}

// Reboot asks host to restart. It returns once the request was accepted.
func Reboot(ctx context.Context, r remote.Runner, host string) error {
	if _, err := remote.Output(ctx, r, rebootScript); err != nil {
		return remote.Classify(host, err)
	}
	return nil
}
