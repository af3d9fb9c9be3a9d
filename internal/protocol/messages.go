// Package protocol defines the closed set of signaling messages exchanged
// over the WebSocket. Every message carries a "type" tag; requests may
// carry a client correlation id ("reqId") which is echoed in the response.
package protocol

import "github.com/pion/webrtc/v4"

// Client -> server message types.
const (
	MsgJoinRoom                = "joinRoom"
	MsgRequestJoinRoom         = "requestJoinRoom"
	MsgLeaveRoom               = "leaveRoom"
	MsgAdminGetPendingRequests = "adminGetPendingRequests"
	MsgApproveJoinRequest      = "approveJoinRequest"
	MsgDenyJoinRequest         = "denyJoinRequest"
	MsgCreateTransport         = "createTransport"
	MsgConnectTransport        = "connectTransport"
	MsgProduce                 = "produce"
	MsgConsume                 = "consume"
	MsgResumeConsumer          = "resumeConsumer"
	MsgProducerStateChanged    = "producerStateChanged"
	MsgAdminMuteParticipant    = "adminMuteParticipant"
	MsgAdminDisableVideo       = "adminDisableVideo"
	MsgAdminRemoveParticipant  = "adminRemoveParticipant"
	MsgAdminEndMeeting         = "adminEndMeeting"
	MsgPing                    = "ping"
)

// Server -> client message types.
const (
	MsgError                      = "error"
	MsgSuccess                    = "success"
	MsgRoomJoined                 = "roomJoined"
	MsgWaitingForApproval         = "waitingForApproval"
	MsgRoomNotFound               = "roomNotFound"
	MsgPendingRequests            = "pendingRequests"
	MsgNewJoinRequest             = "newJoinRequest"
	MsgJoinApproved               = "joinApproved"
	MsgJoinRequestApproved        = "joinRequestApproved"
	MsgJoinRequestDenied          = "joinRequestDenied"
	MsgJoinDenied                 = "joinDenied"
	MsgParticipantJoined          = "participantJoined"
	MsgParticipantLeft            = "participantLeft"
	MsgHostChanged                = "hostChanged"
	MsgTransportCreated           = "transportCreated"
	MsgProduced                   = "produced"
	MsgConsumed                   = "consumed"
	MsgNewProducer                = "newProducer"
	MsgProducerClosed             = "producerClosed"
	MsgRemoteProducerStateChanged = "remoteProducerStateChanged"
	MsgForceMuteChanged           = "forceMuteChanged"
	MsgForceVideoChanged          = "forceVideoChanged"
	MsgRemovedFromMeeting         = "removedFromMeeting"
	MsgMeetingEnded               = "meetingEnded"
	MsgLeftRoom                   = "leftRoom"
	MsgPong                       = "pong"
)

// Envelope is what the dispatcher reads before picking the full type.
type Envelope struct {
	Type  string `json:"type"`
	ReqID string `json:"reqId,omitempty"`
}

// Client -> server messages.

type JoinRoom struct {
	Type     string `json:"type"`
	ReqID    string `json:"reqId,omitempty"`
	UserName string `json:"userName"`
	RoomName string `json:"roomName"`
}

type RequestJoinRoom struct {
	Type     string `json:"type"`
	ReqID    string `json:"reqId,omitempty"`
	UserName string `json:"userName"`
	RoomName string `json:"roomName"`
}

type ApproveJoinRequest struct {
	Type      string `json:"type"`
	ReqID     string `json:"reqId,omitempty"`
	RequestID string `json:"requestId"`
}

type DenyJoinRequest struct {
	Type      string `json:"type"`
	ReqID     string `json:"reqId,omitempty"`
	RequestID string `json:"requestId"`
	Reason    string `json:"reason,omitempty"`
}

// CreateTransport asks for a new transport: direction "producer" for the
// one outbound transport, "consumer" for an inbound transport bound to
// one remote peer.
type CreateTransport struct {
	Type         string `json:"type"`
	ReqID        string `json:"reqId,omitempty"`
	Direction    string `json:"direction"`
	RemotePeerID string `json:"remotePeerId,omitempty"`
}

type ConnectTransport struct {
	Type           string                `json:"type"`
	ReqID          string                `json:"reqId,omitempty"`
	TransportID    string                `json:"transportId"`
	DTLSParameters webrtc.DTLSParameters `json:"dtlsParameters"`
}

type Produce struct {
	Type          string               `json:"type"`
	ReqID         string               `json:"reqId,omitempty"`
	TransportID   string               `json:"transportId,omitempty"`
	Kind          string               `json:"kind"`
	RTPParameters webrtc.RTPParameters `json:"rtpParameters"`
}

type Consume struct {
	Type            string                 `json:"type"`
	ReqID           string                 `json:"reqId,omitempty"`
	ProducerID      string                 `json:"producerId"`
	RemotePeerID    string                 `json:"remotePeerId"`
	RTPCapabilities webrtc.RTPCapabilities `json:"rtpCapabilities"`
}

type ResumeConsumer struct {
	Type         string `json:"type"`
	ReqID        string `json:"reqId,omitempty"`
	ConsumerID   string `json:"consumerId"`
	RemotePeerID string `json:"remotePeerId"`
}

// ProducerStateChanged reports a participant's own mute/camera toggle.
type ProducerStateChanged struct {
	Type   string `json:"type"`
	ReqID  string `json:"reqId,omitempty"`
	Kind   string `json:"kind"`
	Paused bool   `json:"paused"`
}

type AdminMuteParticipant struct {
	Type   string `json:"type"`
	ReqID  string `json:"reqId,omitempty"`
	PeerID string `json:"peerId"`
	Mute   bool   `json:"mute"`
}

type AdminDisableVideo struct {
	Type    string `json:"type"`
	ReqID   string `json:"reqId,omitempty"`
	PeerID  string `json:"peerId"`
	Disable bool   `json:"disable"`
}

type AdminRemoveParticipant struct {
	Type   string `json:"type"`
	ReqID  string `json:"reqId,omitempty"`
	PeerID string `json:"peerId"`
}

// Server -> client messages.

type Error struct {
	Type  string `json:"type"`
	ReqID string `json:"reqId,omitempty"`
	Error string `json:"error"`
}

type Success struct {
	Type  string `json:"type"`
	ReqID string `json:"reqId,omitempty"`
}

// ProducerInfo is one entry of a producers-to-consume manifest.
type ProducerInfo struct {
	ProducerID   string `json:"producerId"`
	UserName     string `json:"userName"`
	RemotePeerID string `json:"remotePeerId"`
	Kind         string `json:"kind"`
}

type RoomJoined struct {
	Type                  string                 `json:"type"`
	ReqID                 string                 `json:"reqId,omitempty"`
	PeerID                string                 `json:"peerId"`
	RouterRTPCapabilities webrtc.RTPCapabilities `json:"routerRtpCapabilities"`
	ProducersToConsume    []ProducerInfo         `json:"producersToConsume"`
	IsHost                bool                   `json:"isHost"`
}

type WaitingForApproval struct {
	Type     string `json:"type"`
	ReqID    string `json:"reqId,omitempty"`
	Waiting  bool   `json:"waiting"`
	HostName string `json:"hostName"`
}

type RoomNotFound struct {
	Type  string `json:"type"`
	ReqID string `json:"reqId,omitempty"`
}

type PendingRequestInfo struct {
	ID        string `json:"id"`
	UserName  string `json:"userName"`
	Timestamp int64  `json:"timestamp"`
}

type PendingRequests struct {
	Type     string               `json:"type"`
	ReqID    string               `json:"reqId,omitempty"`
	Requests []PendingRequestInfo `json:"requests"`
}

// NewJoinRequest is pushed to the host when someone asks to join.
type NewJoinRequest struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	UserName  string `json:"userName"`
	Timestamp int64  `json:"timestamp"`
}

// JoinApproved is pushed to the requester once the host lets them in.
type JoinApproved struct {
	Type                  string                 `json:"type"`
	RouterRTPCapabilities webrtc.RTPCapabilities `json:"routerRtpCapabilities"`
	ProducersToConsume    []ProducerInfo         `json:"producersToConsume"`
	PeerID                string                 `json:"peerId"`
}

type JoinRequestApproved struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId"`
}

type JoinRequestDenied struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId"`
}

type JoinDenied struct {
	Type     string `json:"type"`
	Reason   string `json:"reason"`
	HostName string `json:"hostName"`
}

type ParticipantJoined struct {
	Type     string `json:"type"`
	UserName string `json:"userName"`
	PeerID   string `json:"peerId"`
}

type ParticipantLeft struct {
	Type     string `json:"type"`
	UserName string `json:"userName"`
	PeerID   string `json:"peerId"`
}

// HostChanged announces a deterministic host transfer after the previous
// host left.
type HostChanged struct {
	Type     string `json:"type"`
	UserName string `json:"userName"`
	PeerID   string `json:"peerId"`
}

type TransportCreated struct {
	Type           string                `json:"type"`
	ReqID          string                `json:"reqId,omitempty"`
	ID             string                `json:"id"`
	ICEParameters  webrtc.ICEParameters  `json:"iceParameters"`
	ICECandidates  []webrtc.ICECandidate `json:"iceCandidates"`
	DTLSParameters webrtc.DTLSParameters `json:"dtlsParameters"`
}

type Produced struct {
	Type       string `json:"type"`
	ReqID      string `json:"reqId,omitempty"`
	ProducerID string `json:"producerId"`
}

type Consumed struct {
	Type          string               `json:"type"`
	ReqID         string               `json:"reqId,omitempty"`
	ConsumerID    string               `json:"consumerId"`
	ProducerID    string               `json:"producerId"`
	Kind          string               `json:"kind"`
	RTPParameters webrtc.RTPParameters `json:"rtpParameters"`
}

type NewProducer struct {
	Type         string `json:"type"`
	ProducerID   string `json:"producerId"`
	UserName     string `json:"userName"`
	RemotePeerID string `json:"remotePeerId"`
	Kind         string `json:"kind"`
}

type ProducerClosed struct {
	Type         string `json:"type"`
	ProducerID   string `json:"producerId"`
	RemotePeerID string `json:"remotePeerId"`
}

// RemoteProducerStateChanged tells the room a peer's producer was paused
// or resumed. ByHost distinguishes a host-imposed change from the peer's
// own toggle.
type RemoteProducerStateChanged struct {
	Type         string `json:"type"`
	RemotePeerID string `json:"remotePeerId"`
	Kind         string `json:"kind"`
	Paused       bool   `json:"paused"`
	ByHost       bool   `json:"byHost"`
}

// ForceMuteChanged is sent to the participant a host muted or unmuted.
type ForceMuteChanged struct {
	Type       string `json:"type"`
	Muted      bool   `json:"muted"`
	ByUserName string `json:"byUserName"`
}

type ForceVideoChanged struct {
	Type       string `json:"type"`
	Disabled   bool   `json:"disabled"`
	ByUserName string `json:"byUserName"`
}

type RemovedFromMeeting struct {
	Type       string `json:"type"`
	ByUserName string `json:"byUserName"`
}

type MeetingEnded struct {
	Type       string `json:"type"`
	Reason     string `json:"reason,omitempty"`
	ByUserName string `json:"byUserName,omitempty"`
}

type LeftRoom struct {
	Type  string `json:"type"`
	ReqID string `json:"reqId,omitempty"`
}

type Pong struct {
	Type string `json:"type"`
}
