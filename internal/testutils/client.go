// Package testutils provides fakes shared by package tests.
package testutils

import (
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Request is a REST call recorded by FakeClient.
type Request struct {
	Method string
	URL    string
	Data   interface{}
}

// FakeClient implements types.Client and records everything sent through it.
type FakeClient struct {
	mu sync.Mutex

	Sent     []discordgo.Message
	Embeds   []*discordgo.MessageEmbed
	Requests []Request
	Statuses []discordgo.UpdateStatusData
	Joins    []string

	// Response is returned by Request, RequestErr as its error.
	Response   []byte
	RequestErr error
	// JoinErrs are returned by consecutive ChannelVoiceJoin calls.
	JoinErrs []error
	SendErr  error
	Latency  time.Duration
}

func NewFakeClient() *FakeClient {
	return &FakeClient{}
}

func (f *FakeClient) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErr != nil {
		return nil, f.SendErr
	}
	m := discordgo.Message{ChannelID: channelID, Content: content}
	f.Sent = append(f.Sent, m)
	return &m, nil
}

func (f *FakeClient) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErr != nil {
		return nil, f.SendErr
	}
	f.Embeds = append(f.Embeds, embed)
	return &discordgo.Message{ChannelID: channelID, Embeds: []*discordgo.MessageEmbed{embed}}, nil
}

func (f *FakeClient) Request(method, urlStr string, data interface{}, options ...discordgo.RequestOption) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Requests = append(f.Requests, Request{Method: method, URL: urlStr, Data: data})
	return f.Response, f.RequestErr
}

func (f *FakeClient) UpdateStatusComplex(usd discordgo.UpdateStatusData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Statuses = append(f.Statuses, usd)
	return nil
}

func (f *FakeClient) ChannelVoiceJoin(gID, cID string, mute, deaf bool) (*discordgo.VoiceConnection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Joins = append(f.Joins, gID+"/"+cID)
	if len(f.JoinErrs) > 0 {
		err := f.JoinErrs[0]
		f.JoinErrs = f.JoinErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &discordgo.VoiceConnection{GuildID: gID, ChannelID: cID}, nil
}

func (f *FakeClient) HeartbeatLatency() time.Duration {
	return f.Latency
}

// Messages returns the contents of all sent text messages.
func (f *FakeClient) Messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := make([]string, 0, len(f.Sent))
	for _, m := range f.Sent {
		res = append(res, m.Content)
	}
	return res
}

var ErrFake = errors.New("fake failure")

// Message builds a message by author in channel, guildID "" means DM.
func Message(authorID, channelID, guildID, content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        "m-" + authorID,
		ChannelID: channelID,
		GuildID:   guildID,
		Content:   content,
		Author:    &discordgo.User{ID: authorID, Username: "user" + authorID},
	}
}

// JoinCount returns the number of ChannelVoiceJoin calls, safe to call concurrently.
func (f *FakeClient) JoinCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Joins)
}
