package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var hexAddressPattern = regexp.MustCompile("^[0-9a-fA-F]{40}$")

// ParseEVMAddress accepts "0x…", bare 40-char hex and the "chainId:0x…" form
func ParseEVMAddress(raw string) (common.Address, error) {
	address := strings.TrimSpace(raw)
	if i := strings.LastIndex(address, ":"); i >= 0 {
		address = address[i+1:]
	}
	address = strings.TrimPrefix(strings.TrimPrefix(address, "0x"), "0X")
	if !hexAddressPattern.MatchString(address) {
		return common.Address{}, fmt.Errorf("invalid EVM address %q", raw)
	}
	return common.HexToAddress(address), nil
}
