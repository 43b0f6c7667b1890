// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/matrixrun/matrixrun/cmd/matrixrun"

func main() {
	cmd.Execute()
}
