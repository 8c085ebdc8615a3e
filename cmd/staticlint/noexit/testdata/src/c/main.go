package main

import sys "os"

func main() {
	sys.Exit(1) // want `вызов os.Exit в функции main запрещён`
}
