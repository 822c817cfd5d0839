package diagnosis

import (
	"fmt"
	"strings"

	"github.com/wisbric/kubeowl/pkg/fault"
)

// Output headings the model must produce. The parser splits on these.
const (
	headingRootCause  = "### 근본 원인"
	headingSolutions  = "### 해결 방법"
	headingPrevention = "### 재발 방지"
)

// decisiveTypes get a low temperature: their evidence usually pins the cause.
var decisiveTypes = map[fault.Type]bool{
	fault.TypeImagePullBackOff: true,
	fault.TypeOOMKilled:        true,
	fault.TypeCrashLoopBackOff: true,
	fault.TypePending:          true,
}

// TemperatureFor picks the sampling temperature for a fault family.
func TemperatureFor(t fault.Type, defaultTemperature float64) float64 {
	if decisiveTypes[t] {
		return 0.3
	}
	if defaultTemperature <= 0 {
		return 0.7
	}
	return defaultTemperature
}

// BuildSystemPrompt assembles the XML-tagged system message. The diagnostic
// rules branch on fault family, issue category, and owner kind.
func BuildSystemPrompt(f fault.Info) string {
	var b strings.Builder

	b.WriteString("<role>\n")
	b.WriteString("당신은 Kubernetes 운영 전문가입니다. 주어진 장애 증거만으로 근본 원인을 진단하고, ")
	b.WriteString("바로 적용 가능한 해결 방법과 재발 방지책을 제시합니다.\n")
	b.WriteString("</role>\n\n")

	b.WriteString("<constraints>\n")
	b.WriteString("- 증거에 없는 내용을 추측하지 마십시오.\n")
	b.WriteString("- 명령어 뒤에 bash, sh 같은 단어를 붙이지 마십시오.\n")
	b.WriteString("- 증거가 리소스 부족을 가리키면 PVC나 StorageClass 관련 해결책을 제시하지 마십시오.\n")
	b.WriteString("- 소유 컨트롤러(Deployment, StatefulSet 등)가 있는 Pod는 Pod를 직접 수정하지 말고 컨트롤러를 수정하십시오.\n")
	b.WriteString("</constraints>\n\n")

	b.WriteString("<diagnostic_rules>\n")
	b.WriteString(diagnosticRules(f))
	b.WriteString("</diagnostic_rules>\n\n")

	b.WriteString("<solution_requirements>\n")
	b.WriteString("- YAML은 수정이 끝난 최종본만 제시하고, 수정 전/후 비교는 쓰지 마십시오.\n")
	b.WriteString("- kubectl apply, kubectl get, kubectl delete pod 같은 일반론적 명령만으로 된 해결책은 금지합니다.\n")
	b.WriteString("- 각 단계는 번호를 붙인 실행 가능한 작업이어야 합니다.\n")
	b.WriteString("</solution_requirements>\n\n")

	b.WriteString("<placeholders>\n")
	b.WriteString("- 사용자가 채워야 하는 값은 YOUR_NAMESPACE, YOUR_DEPLOYMENT 같은 대문자 변수로 쓰십시오.\n")
	b.WriteString("- HTML로 해석될 수 있는 꺾쇠괄호 플레이스홀더(<namespace> 등)는 금지합니다.\n")
	b.WriteString("</placeholders>\n\n")

	b.WriteString("<output_format>\n")
	b.WriteString("정확히 다음 세 개의 제목으로 답하십시오:\n")
	b.WriteString(headingRootCause + "\n")
	b.WriteString(headingSolutions + "\n")
	b.WriteString(headingPrevention + "\n")
	b.WriteString("해결 방법은 1. 2. 3. 형식의 번호 목록으로 쓰십시오. 재발 방지는 - 목록으로 쓰십시오.\n")
	b.WriteString("</output_format>\n")

	return b.String()
}

// diagnosticRules emits the fault-family-specific rule block.
func diagnosticRules(f fault.Info) string {
	category := f.IssueCategory()
	ownerKind := f.Context[fault.CtxOwnerKind]

	var b strings.Builder
	switch f.Type {
	case fault.TypePending:
		switch {
		case category == "PVC_BINDING" && ownerKind == fault.KindStatefulSet:
			b.WriteString("- StatefulSet의 PVC 바인딩 실패입니다. 반드시 volumeClaimTemplates의 storageClassName을 수정하도록 안내하십시오.\n")
			b.WriteString("- 별도의 PVC를 새로 만드는 해결책은 금지합니다. StatefulSet은 PVC를 템플릿으로 자동 생성합니다.\n")
		case strings.HasPrefix(category, "RESOURCE_SHORTAGE"):
			b.WriteString("- 스케줄링 메시지에서 CPU 부족인지 Memory 부족인지 구분해 진단하십시오.\n")
			b.WriteString("- PVC나 StorageClass 관련 해결책은 금지합니다. 이 장애는 리소스 부족입니다.\n")
			b.WriteString("- requests 축소, 노드 증설, 다른 워크로드 정리 중에서 증거에 맞는 방향을 제시하십시오.\n")
		case category == "PVC_BINDING":
			b.WriteString("- PVC가 바인딩되지 않아 스케줄링이 실패했습니다. StorageClass 존재 여부와 프로비저너 동작을 점검하도록 안내하십시오.\n")
		case category == "TAINT_TOLERATION":
			b.WriteString("- 노드 테인트와 Pod 톨러레이션 불일치입니다. 테인트 제거가 아니라 톨러레이션 추가를 우선 제시하십시오.\n")
		default:
			b.WriteString("- 스케줄링 실패 메시지를 근거로 노드 셀렉터, 어피니티, 리소스 조건 중 원인을 좁히십시오.\n")
		}
	case fault.TypeCrashLoopBackOff:
		b.WriteString("- 종료 코드 해석: 1=애플리케이션 오류, 126=실행 권한 없음, 127=명령을 찾을 수 없음, 137=SIGKILL(OOM 또는 프로브), 143=SIGTERM.\n")
		b.WriteString("- exitCode와 issueCategory를 함께 보고 프로브 킬인지 애플리케이션 크래시인지 구분하십시오.\n")
	case fault.TypeImagePullBackOff:
		b.WriteString("- 레지스트리 인증 실패면 imagePullSecrets 생성과 참조를 구체적 YAML로 제시하십시오.\n")
		b.WriteString("- 이미지 이름이나 태그 오타 가능성을 에러 메시지로 확인하십시오.\n")
	case fault.TypeOOMKilled:
		b.WriteString("- 메모리 limits 상향이 기본 해결책입니다. 구체적 수치를 제시하십시오.\n")
		b.WriteString("- JVM 애플리케이션이면 힙 크기를 컨테이너 limit의 75% 이하로 잡도록 안내하십시오.\n")
	case fault.TypeLivenessProbeFailed, fault.TypeReadinessProbeFailed, fault.TypeStartupProbeFailed:
		b.WriteString("- 프로브 종류별 효과를 구분하십시오: Liveness 실패는 재시작, Readiness 실패는 트래픽 제외, Startup 실패는 기동 차단.\n")
		b.WriteString("- failureThreshold, periodSeconds, initialDelaySeconds 조정과 엔드포인트 자체 점검을 함께 제시하십시오.\n")
	case fault.TypePVCError:
		if ownerKind == fault.KindStatefulSet {
			b.WriteString("- StatefulSet이면 volumeClaimTemplates.storageClassName 수정을 안내하고, 별도 PVC 생성은 금지합니다.\n")
		} else {
			b.WriteString("- PVC의 storageClassName과 프로비저너 상태를 점검하도록 안내하십시오.\n")
		}
	case fault.TypeNodeNotReady, fault.TypeNodePressure:
		b.WriteString("- 이 장애는 노드 수준 문제입니다. 워크로드 수정이 아니라 운영자 관점의 노드 점검(kubelet, 디스크, 메모리)을 제시하십시오.\n")
	case fault.TypeResourceQuotaExceeded, fault.TypeInsufficientResources:
		b.WriteString("- 네임스페이스 쿼터 또는 클러스터 용량 문제입니다. 운영자 관점에서 쿼터 조정과 용량 계획을 제시하십시오.\n")
	case fault.TypeEvicted:
		b.WriteString("- 축출 사유(ephemeral-storage, 메모리 등)에 맞는 limits 설정과 노드 용량 점검을 제시하십시오.\n")
	case fault.TypeJobFailed, fault.TypeCronJobFailed:
		b.WriteString("- Job 로그와 backoffLimit, 스케줄 설정을 근거로 실행 실패 원인을 좁히십시오.\n")
	default:
		b.WriteString("- 제공된 증거만으로 진단하고, 추가 확인이 필요한 부분은 확인 명령을 제시하십시오.\n")
	}
	return b.String()
}

// preferredContextKeys orders which context entries reach the prompt.
var preferredContextKeys = []string{
	fault.CtxIssueCategory,
	fault.CtxContainerName,
	fault.CtxExitCode,
	fault.CtxImage,
	fault.CtxRestartCount,
	fault.CtxTerminationReason,
	fault.CtxOwnerKind,
	fault.CtxOwnerName,
	fault.CtxNodeName,
}

// editTarget names what the user should actually edit for the owner kind.
func editTarget(f fault.Info) string {
	ownerKind := f.Context[fault.CtxOwnerKind]
	ownerName := f.Context[fault.CtxOwnerName]
	switch ownerKind {
	case fault.KindDeployment, fault.KindStatefulSet, fault.KindDaemonSet:
		return fmt.Sprintf("수정 대상은 Pod가 아니라 %s %q입니다.", ownerKind, ownerName)
	case fault.KindJob, fault.KindCronJob:
		return fmt.Sprintf("수정 대상은 %s %q의 템플릿입니다.", ownerKind, ownerName)
	default:
		return "이 Pod는 컨트롤러 없이 직접 생성되었습니다."
	}
}

// BuildUserPrompt assembles the user message: primary fault, evidence, and
// the answer template.
func BuildUserPrompt(f fault.Info, related []fault.Info, filteredLogs []string, dedupedEvents []string) string {
	var b strings.Builder

	b.WriteString("<fault>\n")
	fmt.Fprintf(&b, "유형: %s (%s)\n", f.Type, f.Type.Description())
	fmt.Fprintf(&b, "심각도: %s\n", f.Severity)
	fmt.Fprintf(&b, "리소스: %s %s", f.ResourceKind, f.ResourceName)
	if f.Namespace != "" {
		fmt.Fprintf(&b, " (네임스페이스 %s)", f.Namespace)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "요약: %s\n", f.Summary)
	b.WriteString(editTarget(f) + "\n")
	b.WriteString("</fault>\n\n")

	if msg := f.Context[fault.CtxSchedulingMessage]; msg != "" {
		b.WriteString("<scheduling_message>\n")
		b.WriteString(msg + "\n")
		b.WriteString("</scheduling_message>\n\n")
	}

	if category := f.IssueCategory(); category != "" {
		fmt.Fprintf(&b, "<issue_category>%s</issue_category>\n\n", category)
	}

	if len(f.Symptoms) > 0 {
		b.WriteString("<symptoms>\n")
		for _, s := range f.Symptoms {
			b.WriteString("- " + s + "\n")
		}
		b.WriteString("</symptoms>\n\n")
	}

	if ctx := contextLines(f); len(ctx) > 0 {
		b.WriteString("<context>\n")
		for _, line := range ctx {
			b.WriteString(line + "\n")
		}
		b.WriteString("</context>\n\n")
	}

	if len(related) > 0 {
		shown := related
		if len(shown) > 2 {
			shown = shown[:2]
		}
		b.WriteString("<related_faults>\n")
		for _, r := range shown {
			fmt.Fprintf(&b, "- %s: %s\n", r.Type, r.Summary)
		}
		b.WriteString("</related_faults>\n\n")
	}

	if len(filteredLogs) > 0 {
		b.WriteString("<logs>\n")
		for _, line := range filteredLogs {
			b.WriteString(line + "\n")
		}
		b.WriteString("</logs>\n\n")
	}

	if len(dedupedEvents) > 0 {
		b.WriteString("<events>\n")
		for _, line := range dedupedEvents {
			b.WriteString(line + "\n")
		}
		b.WriteString("</events>\n\n")
	}

	b.WriteString("다음 형식으로 답하십시오:\n\n")
	b.WriteString(headingRootCause + "\n(원인 설명)\n\n")
	b.WriteString(headingSolutions + "\n1. (첫 번째 단계)\n2. (두 번째 단계)\n\n")
	b.WriteString(headingPrevention + "\n- (방지책)\n")

	return b.String()
}

// contextLines picks up to three context entries, never the cluster id.
func contextLines(f fault.Info) []string {
	var out []string
	for _, key := range preferredContextKeys {
		if key == fault.CtxClusterID {
			continue
		}
		if v, ok := f.Context[key]; ok && v != "" {
			out = append(out, fmt.Sprintf("%s: %s", key, v))
			if len(out) == 3 {
				break
			}
		}
	}
	return out
}
