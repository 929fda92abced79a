// Command reviewctl runs schema, seeding and maintenance tasks for ReviewHub.
package main

import "reviewhub/cmd/reviewctl/commands"

func main() {
	commands.Execute()
}
