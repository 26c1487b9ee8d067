package main

import "github.com/frahmantamala/checkout-payments/cmd"

func main() {
	cmd.Execute()
}
