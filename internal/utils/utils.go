package utils

import "log"

// Must aborts the process on a bootstrap error; nothing past startup uses it.
func Must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
