package main

import (
	"context"
	"os"

	"blmne/pkg/errs"
	"blmne/pkg/logger"
)

func main() {
	root := newRootCmd(os.Stdout)
	if err := root.ExecuteContext(context.Background()); err != nil {
		logger.Errorf("%v", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error category to a stable process exit status so shell
// wrappers can branch on it.
func exitCode(err error) int {
	switch errs.CategoryOf(err) {
	case errs.CategoryNotFound:
		return 3
	case errs.CategoryParse:
		return 4
	case errs.CategoryValidation:
		return 5
	case errs.CategoryIO:
		return 6
	}
	return 1
}
