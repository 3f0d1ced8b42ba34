package middleware

import (
	"errors"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
)

// MaxQuoteLength bounds quote text; the artwork cannot fit more anyway.
const MaxQuoteLength = 1000

// ValidateQuoteText validates quote text supplied for rendering/minting.
func ValidateQuoteText(text string) error {
	if len(text) == 0 {
		return errors.New("quote text cannot be empty")
	}
	if len(text) > MaxQuoteLength {
		return errors.New("quote text exceeds maximum length")
	}
	if !utf8.ValidString(text) {
		return errors.New("quote text must be valid UTF-8")
	}
	return nil
}

// ValidateWalletAddress validates a hex wallet address.
func ValidateWalletAddress(addr string) error {
	if addr == "" {
		return errors.New("wallet address cannot be empty")
	}
	if !common.IsHexAddress(addr) {
		return errors.New("wallet address is not a valid address")
	}
	return nil
}

// ValidateMessageContent validates chat message content.
func ValidateMessageContent(content string) error {
	if len(content) == 0 {
		return errors.New("content cannot be empty")
	}
	if len(content) > 100000 {
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}
