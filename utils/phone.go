package utils

import (
	"fmt"

	"github.com/ttacon/libphonenumber"
)

// NormalizePhone validates a notification recipient number for the region
// and returns it in E.164 form. Region defaults to MM.
func NormalizePhone(phoneNumber, region string) (string, error) {
	if region == "" {
		region = "MM"
	}
	p, err := libphonenumber.Parse(phoneNumber, region)
	if err != nil {
		return "", err
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", fmt.Errorf("phone number %q is not valid for region %s", phoneNumber, region)
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}
