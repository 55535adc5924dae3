package messages

import "fmt"

func NewNodeMessage(level NodeLogLevel, component string, err error, formatString string, additionalInfo ...interface{}) *NodeMessage {
	return &NodeMessage{
		LogLevel:       level,
		Component:      component,
		Error:          err,
		FormatString:   formatString,
		AdditionalInfo: additionalInfo,
	}
}

func (nodeMsg *NodeMessage) ConsoleLog() {
	switch nodeMsg.LogLevel {
	case LOG_LEVEL_INFO, LOG_LEVEL_SUCCESS, LOG_LEVEL_WARNING:
		nodeMsg.formatMessage()
	case LOG_LEVEL_ERROR:
		nodeMsg.formatError()
	}
}

func (nodeMsg *NodeMessage) formatMessage() {
	// [LOG_LEVEL] custom_message
	fmtString := "[%s] " + nodeMsg.FormatString
	additionalArgs := append([]interface{}{nodeMsg.LogLevel}, nodeMsg.AdditionalInfo...)
	msg := fmt.Sprintf(fmtString, additionalArgs...)
	switch nodeMsg.LogLevel {
	case LOG_LEVEL_INFO:
		msg = blue + msg + reset
	case LOG_LEVEL_SUCCESS:
		msg = green + msg + reset
	case LOG_LEVEL_WARNING:
		msg = yellow + msg + reset
	default:
		msg = white + msg + reset
	}
	fmt.Println(msg)
}

func (nodeMsg *NodeMessage) formatError() {
	// [LOG_LEVEL][COMPONENT] custom_message: error_message
	fmtString := "[%s][%s] " + nodeMsg.FormatString + ": [%v]"
	var additionalArgs []interface{}
	additionalArgs = append(additionalArgs, nodeMsg.LogLevel, nodeMsg.Component)
	additionalArgs = append(additionalArgs, nodeMsg.AdditionalInfo...)
	additionalArgs = append(additionalArgs, nodeMsg.Error)
	msg := fmt.Sprintf(fmtString, additionalArgs...)
	msg = red + msg + reset
	fmt.Println(msg)
	panic(nil)
}
