package main

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/mpcautofill/go-autofill/order"
)

func main() {
	err := newRootCommand().Execute()
	if err == nil {
		return
	}

	log.Println(err)

	// Input errors are shown and acknowledged so a console window does
	// not vanish before the operator reads the message; only
	// infrastructure failures exit non-zero.
	if isInputError(err) {
		fmt.Println("Press Enter to exit")
		reader := bufio.NewReader(os.Stdin)
		reader.ReadString('\n')
		return
	}

	os.Exit(1)
}

func isInputError(err error) bool {
	var validation *order.ValidationError
	var missing *order.MissingElementError
	var invalidFace *order.InvalidFaceError
	var notSupported *order.SiteNotSupportedError

	return errors.Is(err, order.ErrMalformedInput) ||
		errors.Is(err, order.ErrNoImages) ||
		errors.As(err, &validation) ||
		errors.As(err, &missing) ||
		errors.As(err, &invalidFace) ||
		errors.As(err, &notSupported)
}
