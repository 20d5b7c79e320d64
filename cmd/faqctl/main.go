// Command faqctl talks to the question-answering service from a shell:
// ask questions, upload documents and manage the stored index.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
