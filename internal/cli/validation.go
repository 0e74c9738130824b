package cli

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var digitsPattern = regexp.MustCompile(`^\d+$`)

// parseChoreID parses a chore id argument.
// Returns an error with a helpful message for ids that are not plain numbers.
func parseChoreID(arg string) (uint64, error) {
	id := strings.TrimSpace(arg)
	if !digitsPattern.MatchString(id) {
		return 0, fmt.Errorf("invalid chore ID '%s'. Chore IDs are numbers, see 'chore list'", arg)
	}
	v, err := strconv.ParseUint(id, 10, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("invalid chore ID '%s'", arg)
	}
	return v, nil
}

// confirmPrompt asks a yes/no question on in. Anything but y or yes is a no.
func confirmPrompt(out io.Writer, in io.Reader, msg string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", msg)
	reader := bufio.NewReader(in)
	response, err := reader.ReadString('\n')
	if err != nil && response == "" {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
