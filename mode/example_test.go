package mode_test

import (
	"bytes"
	"fmt"

	"github.com/GGCDMBit/CEX/block/rhx"
	"github.com/GGCDMBit/CEX/mode"
)

// Encrypt and decrypt a message with RHX in CFB mode.
func ExampleCFB() {
	key := make([]byte, 32)
	iv := make([]byte, 16)
	message := []byte("a message of no particular length")

	cipher, _ := rhx.New(rhx.Block16)
	cfb := mode.NewCFB(cipher)

	_ = cfb.Initialize(mode.Encrypt, key, iv)
	ciphertext := make([]byte, len(message))
	_ = cfb.Transform(ciphertext, message)

	_ = cfb.Initialize(mode.Decrypt, key, iv)
	plaintext := make([]byte, len(ciphertext))
	_ = cfb.Transform(plaintext, ciphertext)

	fmt.Println(bytes.Equal(plaintext, message))
	// Output: true
}
