package compiler

import (
	"fmt"
	"strings"

	"github.com/strataudio/strata/pkg/graph"
)

var unrealTransition = map[graph.TransitionType]string{
	graph.TransitionInstant:   "ETransitionKind::Instant",
	graph.TransitionCrossfade: "ETransitionKind::Crossfade",
	graph.TransitionMusical:   "ETransitionKind::Musical",
	graph.TransitionStinger:   "ETransitionKind::Stinger",
	graph.TransitionDuck:      "ETransitionKind::Duck",
	graph.TransitionLayerIn:   "ETransitionKind::LayerIn",
	graph.TransitionLayerOut:  "ETransitionKind::LayerOut",
}

// lowerUnreal emits an ActorComponent as a header/source pair. Guard
// evaluation mirrors the Unity target; the mix is pushed through
// UAudioComponent handles the integrator binds in the editor.
func lowerUnreal(low *lowering) ([]Artifact, error) {
	g := low.g
	class := "U" + low.graphIdent + "AudioComponent"
	stem := low.graphIdent + "AudioComponent"

	h := newCodeWriter("\t")
	h.line("// Generated audio state machine. Do not edit by hand.")
	h.linef("// Graph: %s (%s)", g.Name, g.ID)
	h.blank()
	h.line("#pragma once")
	h.blank()
	h.line("#include \"CoreMinimal.h\"")
	h.line("#include \"Components/ActorComponent.h\"")
	h.line("#include \"Components/AudioComponent.h\"")
	h.linef("#include \"%s.generated.h\"", stem)
	h.blank()
	h.line("UENUM(BlueprintType)")
	h.linef("enum class E%sState : uint8", low.graphIdent)
	h.line("{")
	h.push()
	for _, s := range g.States {
		h.linef("%s,", low.stateIdent(s.ID))
	}
	h.pop()
	h.line("};")
	h.blank()
	h.line("UENUM()")
	h.line("enum class ETransitionKind : uint8 { Instant, Crossfade, Musical, Stinger, Duck, LayerIn, LayerOut };")
	h.blank()
	h.line("UCLASS(ClassGroup=(Audio), meta=(BlueprintSpawnableComponent))")
	h.linef("class %s : public UActorComponent", class)
	h.line("{")
	h.push()
	h.line("GENERATED_BODY()")
	h.pop()
	h.blank()
	h.line("public:")
	h.push()
	h.linef("%s();", class)
	h.blank()
	h.line("virtual void TickComponent(float DeltaTime, ELevelTick TickType, FActorComponentTickFunction* ThisTickFunction) override;")
	h.blank()
	h.line("UFUNCTION(BlueprintCallable, Category=\"Audio\")")
	h.line("void SetNumberParameter(FName Name, float Value);")
	h.blank()
	h.line("UFUNCTION(BlueprintCallable, Category=\"Audio\")")
	h.line("void SetBoolParameter(FName Name, bool bValue);")
	h.blank()
	h.line("UFUNCTION(BlueprintCallable, Category=\"Audio\")")
	h.line("void SetStringParameter(FName Name, const FString& Value);")
	h.blank()
	h.line("UFUNCTION(BlueprintCallable, Category=\"Audio\")")
	h.line("void TriggerEvent(FName Name);")
	h.blank()
	h.line("UFUNCTION(BlueprintPure, Category=\"Audio\")")
	h.linef("E%sState GetCurrentState() const { return Current; }", low.graphIdent)
	h.blank()
	h.line("UPROPERTY(EditAnywhere, Category=\"Audio\")")
	h.line("TMap<FName, UAudioComponent*> LayerChannels;")
	h.pop()
	h.blank()
	h.line("private:")
	h.push()
	h.linef("void Enter(E%sState Next, ETransitionKind Kind, float DurationMs);", low.graphIdent)
	h.line("void ApplyMix(const TMap<FName, float>& Mix, float Master, ETransitionKind Kind, float DurationMs);")
	h.line("void ClearPulses();")
	h.blank()
	h.linef("E%sState Current;", low.graphIdent)
	h.line("float StateTimeMs = 0.f;")
	h.line("TMap<FName, float> NumberParams;")
	h.line("TMap<FName, bool> BoolParams;")
	h.line("TMap<FName, FString> StringParams;")
	h.line("TSet<FName> Pulses;")
	h.pop()
	h.line("};")

	c := newCodeWriter("\t")
	c.line("// Generated audio state machine. Do not edit by hand.")
	c.blank()
	c.linef("#include \"%s.h\"", stem)
	c.blank()
	c.linef("%s::%s()", class, class)
	c.line("{")
	c.push()
	c.line("PrimaryComponentTick.bCanEverTick = true;")
	for _, p := range g.Parameters {
		switch p.Type {
		case graph.ParameterBoolean:
			c.linef("BoolParams.Add(TEXT(%q), %v);", p.Name, p.Default.Bool)
		case graph.ParameterString:
			c.linef("StringParams.Add(TEXT(%q), TEXT(%q));", p.Name, p.Default.Str)
		default:
			c.linef("NumberParams.Add(TEXT(%q), %sf);", p.Name, trimMs(p.Default.Number))
		}
	}
	if initial, ok := g.InitialState(); ok {
		c.linef("Current = E%sState::%s;", low.graphIdent, low.stateIdent(initial.ID))
	}
	c.pop()
	c.line("}")
	c.blank()

	c.linef("void %s::SetNumberParameter(FName Name, float Value)", class)
	c.line("{")
	c.push()
	for _, p := range g.Parameters {
		if p.Type != graph.ParameterNumber || (p.Min == nil && p.Max == nil) {
			continue
		}
		min, max := "-FLT_MAX", "FLT_MAX"
		if p.Min != nil {
			min = trimMs(*p.Min) + "f"
		}
		if p.Max != nil {
			max = trimMs(*p.Max) + "f"
		}
		c.linef("if (Name == TEXT(%q)) Value = FMath::Clamp(Value, %s, %s);", p.Name, min, max)
	}
	c.line("NumberParams.Add(Name, Value);")
	c.pop()
	c.line("}")
	c.blank()

	c.linef("void %s::SetBoolParameter(FName Name, bool bValue) { BoolParams.Add(Name, bValue); }", class)
	c.linef("void %s::SetStringParameter(FName Name, const FString& Value) { StringParams.Add(Name, Value); }", class)
	c.blank()

	c.linef("void %s::TriggerEvent(FName Name)", class)
	c.line("{")
	c.push()
	c.line("BoolParams.Add(Name, true);")
	c.line("Pulses.Add(Name);")
	c.pop()
	c.line("}")
	c.blank()

	c.linef("void %s::TickComponent(float DeltaTime, ELevelTick TickType, FActorComponentTickFunction* ThisTickFunction)", class)
	c.line("{")
	c.push()
	c.line("Super::TickComponent(DeltaTime, TickType, ThisTickFunction);")
	c.line("StateTimeMs += DeltaTime * 1000.f;")
	c.line("switch (Current)")
	c.line("{")
	for _, s := range g.States {
		outgoing := g.TransitionsFrom(s.ID)
		if len(outgoing) == 0 {
			continue
		}
		c.linef("case E%sState::%s:", low.graphIdent, low.stateIdent(s.ID))
		c.push()
		for _, t := range selectionOrder(outgoing) {
			c.linef("// %s", transitionLabel(t))
			c.linef("if (%s)", unrealGuard(t))
			c.line("{")
			c.push()
			c.linef("Enter(E%sState::%s, %s, %sf);",
				low.graphIdent, low.stateIdent(t.ToStateID), unrealTransition[t.Type], trimMs(float64(t.DurationMs)))
			c.line("ClearPulses();")
			c.line("return;")
			c.pop()
			c.line("}")
		}
		c.line("break;")
		c.pop()
	}
	c.line("default:")
	c.push()
	c.line("break;")
	c.pop()
	c.line("}")
	c.line("ClearPulses();")
	c.pop()
	c.line("}")
	c.blank()

	c.linef("void %s::ClearPulses()", class)
	c.line("{")
	c.push()
	c.line("for (const FName& Name : Pulses)")
	c.line("{")
	c.push()
	c.line("BoolParams.Add(Name, false);")
	c.pop()
	c.line("}")
	c.line("Pulses.Empty();")
	c.pop()
	c.line("}")
	c.blank()

	c.linef("void %s::Enter(E%sState Next, ETransitionKind Kind, float DurationMs)", class, low.graphIdent)
	c.line("{")
	c.push()
	c.line("Current = Next;")
	c.line("StateTimeMs = 0.f;")
	c.line("TMap<FName, float> Mix;")
	c.line("float Master = 1.f;")
	c.line("switch (Next)")
	c.line("{")
	for _, s := range g.States {
		c.linef("case E%sState::%s:", low.graphIdent, low.stateIdent(s.ID))
		c.push()
		for _, layerName := range s.Audio.ActiveLayers {
			c.linef("Mix.Add(TEXT(%q), %sf);", layerName, trimMs(layerVolume(s.Audio, layerName)))
		}
		c.linef("Master = %sf;", trimMs(s.Audio.MasterVolume))
		c.line("break;")
		c.pop()
	}
	c.line("}")
	c.line("ApplyMix(Mix, Master, Kind, DurationMs);")
	c.pop()
	c.line("}")
	c.blank()

	c.linef("void %s::ApplyMix(const TMap<FName, float>& Mix, float Master, ETransitionKind Kind, float DurationMs)", class)
	c.line("{")
	c.push()
	c.line("for (auto& Pair : LayerChannels)")
	c.line("{")
	c.push()
	c.line("const float* Found = Mix.Find(Pair.Key);")
	c.line("const float Target = Found ? *Found * Master : 0.f;")
	c.line("if (Pair.Value == nullptr)")
	c.line("{")
	c.push()
	c.line("continue;")
	c.pop()
	c.line("}")
	c.line("if (Kind == ETransitionKind::Instant || DurationMs <= 0.f)")
	c.line("{")
	c.push()
	c.line("Pair.Value->SetVolumeMultiplier(Target);")
	c.pop()
	c.line("}")
	c.line("else")
	c.line("{")
	c.push()
	c.line("Pair.Value->AdjustVolume(DurationMs / 1000.f, Target);")
	c.pop()
	c.line("}")
	c.pop()
	c.line("}")
	c.pop()
	c.line("}")

	return []Artifact{
		{Path: stem + ".h", Content: h.String(), Kind: KindSource},
		{Path: stem + ".cpp", Content: c.String(), Kind: KindSource},
	}, nil
}

func unrealGuard(t graph.StateTransition) string {
	if len(t.Conditions) == 0 {
		if t.Logic == graph.LogicOr {
			return "false"
		}
		return "true"
	}
	terms := make([]string, len(t.Conditions))
	for i, c := range t.Conditions {
		terms[i] = unrealCond(c)
	}
	sep := " && "
	if t.Logic == graph.LogicOr {
		sep = " || "
	}
	return strings.Join(terms, sep)
}

func unrealCond(c graph.TransitionCondition) string {
	if c.Kind == graph.ConditionStateDuration {
		return fmt.Sprintf("StateTimeMs >= %sf", trimMs(c.ThresholdMs))
	}
	switch c.Value.Type {
	case graph.ParameterBoolean:
		return fmt.Sprintf("BoolParams.Contains(TEXT(%q)) && BoolParams[TEXT(%q)] %s %v",
			c.Parameter, c.Parameter, csOp(c.Operator), c.Value.Bool)
	case graph.ParameterString:
		return fmt.Sprintf("StringParams.Contains(TEXT(%q)) && StringParams[TEXT(%q)] %s TEXT(%q)",
			c.Parameter, c.Parameter, csOp(c.Operator), c.Value.Str)
	default:
		return fmt.Sprintf("NumberParams.Contains(TEXT(%q)) && NumberParams[TEXT(%q)] %s %sf",
			c.Parameter, c.Parameter, csOp(c.Operator), trimMs(c.Value.Number))
	}
}
